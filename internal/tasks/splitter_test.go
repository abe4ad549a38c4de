package tasks_test

import (
	"errors"
	"path/filepath"
	"testing"

	"cogengine/internal/services"
	"cogengine/internal/state"
	"cogengine/internal/task"
	"cogengine/internal/tasks"
	"cogengine/internal/testsupport"
)

func TestSplitterTwoSections(t *testing.T) {
	h := newHarness(t)
	input := testsupport.WriteText(t, filepath.Join(t.TempDir(), "bundle.txt"), `preamble is dropped
%%% Chapter One!
first line

second line
%%% notes.txt
  tail  
`)
	outDir := filepath.Join(t.TempDir(), "split")

	st, err := h.execute(t, tasks.NameTextFileSplitter, state.New(), task.Params{
		"input_file":   input,
		"save_to_disk": true,
		"output_dir":   outDir,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	docs, err := st.RequireDocuments("split_docs")
	if err != nil {
		t.Fatalf("RequireDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %+v", docs)
	}
	if docs[0].Filename != "Chapter One.txt" || docs[0].Filepath != "virtual/Chapter One.txt" || docs[0].Content != "first line\n\nsecond line" {
		t.Fatalf("unexpected first document %+v", docs[0])
	}
	if docs[1].Filename != "notes.txt" || docs[1].Content != "tail" {
		t.Fatalf("unexpected second document %+v", docs[1])
	}
	if got := testsupport.ReadText(t, filepath.Join(outDir, "Chapter One.txt")); got != "first line\n\nsecond line" {
		t.Fatalf("unexpected saved section %q", got)
	}
}

func TestSplitterWithoutDelimitersYieldsSourceDocument(t *testing.T) {
	h := newHarness(t)
	input := testsupport.WriteText(t, filepath.Join(t.TempDir(), "plain.txt"), "just text\n")

	st, err := h.execute(t, tasks.NameTextFileSplitter, state.New(), task.Params{
		"input_file": input,
		"output_key": "docs",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	docs, err := st.RequireDocuments("docs")
	if err != nil {
		t.Fatalf("RequireDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].Filename != "plain.txt" || docs[0].Content != "just text\n" {
		t.Fatalf("unexpected documents %+v", docs)
	}
}

func TestSplitterDropsTrailingEmptySection(t *testing.T) {
	h := newHarness(t)
	input := testsupport.WriteText(t, filepath.Join(t.TempDir(), "in.txt"), "%%% a\nbody\n%%% b\n")

	st, err := h.execute(t, tasks.NameTextFileSplitter, state.New(), task.Params{"input_file": input})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	docs, _ := st.RequireDocuments("split_docs")
	if len(docs) != 1 || docs[0].Filename != "a.txt" {
		t.Fatalf("expected only the non-empty section, got %+v", docs)
	}
}

func TestSplitterKeepsNumericCharactersInNames(t *testing.T) {
	h := newHarness(t)
	input := testsupport.WriteText(t, filepath.Join(t.TempDir(), "in.txt"), "%%% Part ½: x² (draft)\nbody\n")

	st, err := h.execute(t, tasks.NameTextFileSplitter, state.New(), task.Params{"input_file": input})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	docs, _ := st.RequireDocuments("split_docs")
	if len(docs) != 1 || docs[0].Filename != "Part ½ x² draft.txt" {
		t.Fatalf("unexpected sanitized name %+v", docs)
	}
}

func TestSplitterMissingInput(t *testing.T) {
	h := newHarness(t)
	_, err := h.execute(t, tasks.NameTextFileSplitter, state.New(), task.Params{
		"input_file": filepath.Join(t.TempDir(), "missing.txt"),
	})
	if !errors.Is(err, services.ErrExternalIO) {
		t.Fatalf("expected ErrExternalIO, got %v", err)
	}
	if _, err := h.execute(t, tasks.NameTextFileSplitter, state.New(), task.Params{}); !errors.Is(err, services.ErrExternalIO) {
		t.Fatalf("expected ErrExternalIO for empty input_file, got %v", err)
	}
}
