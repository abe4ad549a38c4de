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

func TestReportWriterRendersSections(t *testing.T) {
	h := newHarness(t)
	st := state.New()
	st.Set("summary", "hello")
	target := filepath.Join(t.TempDir(), "reports", "final.md")

	_, err := h.execute(t, tasks.NameReportWriter, st, task.Params{
		"filename": target,
		"sections": []any{
			map[string]any{"title": "Summary", "content_key": "summary"},
			map[string]any{"title": "Missing", "content_key": "nope"},
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := "## Summary\n\nhello\n\n\n---\n\n\n## Missing\n\n_[Missing content for key: nope]_\n\n\n---\n"
	if got := testsupport.ReadText(t, target); got != want {
		t.Fatalf("unexpected report %q", got)
	}
}

func TestReportWriterUntitledSection(t *testing.T) {
	h := newHarness(t)
	st := state.New()
	st.Set("body", []any{"a", "b"})
	target := filepath.Join(t.TempDir(), "r.md")

	if _, err := h.execute(t, tasks.NameReportWriter, st, task.Params{
		"filename": target,
		"sections": []any{map[string]any{"content_key": "body"}},
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := testsupport.ReadText(t, target); got != "[\"a\",\"b\"]\n\n\n---\n" {
		t.Fatalf("unexpected report %q", got)
	}
}

func TestReportWriterValidation(t *testing.T) {
	h := newHarness(t)
	if _, err := h.execute(t, tasks.NameReportWriter, state.New(), task.Params{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	_, err := h.execute(t, tasks.NameReportWriter, state.New(), task.Params{
		"filename": filepath.Join(t.TempDir(), "r.md"),
		"sections": []any{"not a mapping"},
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for bad section, got %v", err)
	}
}
