package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank result %#v", results[2])
	}
}

func TestTranscriptionRequirementsResolveFromPath(t *testing.T) {
	binDir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range []string{"uvx", "ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
			t.Fatalf("write %s stub: %v", name, err)
		}
	}
	t.Setenv("PATH", binDir)

	for _, status := range CheckBinaries(TranscriptionRequirements()) {
		if !status.Available {
			t.Fatalf("expected %s available, got %q", status.Name, status.Detail)
		}
		if filepath.Dir(status.Path) != binDir {
			t.Fatalf("expected resolved path under %s, got %s", binDir, status.Path)
		}
	}
}

func TestTranscriptionRequirementsMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	optional := 0
	for _, status := range CheckBinaries(TranscriptionRequirements()) {
		if status.Available {
			t.Fatalf("expected %s to be missing", status.Name)
		}
		if status.Optional {
			optional++
		}
	}
	if optional != 1 {
		t.Fatalf("expected only ffprobe optional, got %d", optional)
	}
	if missing := MissingRequired(CheckBinaries(TranscriptionRequirements())); len(missing) != 2 {
		t.Fatalf("expected uvx and ffmpeg reported, got %v", missing)
	}
}
