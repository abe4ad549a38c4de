package textutil

import "testing"

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("Demo Workflow.yaml"); got != "demo_workflow_yaml" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := SanitizeToken("Nightly  Report!!"); got != "nightly_report" {
		t.Fatalf("expected collapsed separators, got %q", got)
	}
	if got := SanitizeToken("  "); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestExtensionMatching(t *testing.T) {
	if NormalizeExtension("TXT") != ".txt" {
		t.Fatalf("unexpected normalized extension %q", NormalizeExtension("TXT"))
	}
	if NormalizeExtension(".Md") != NormalizeExtension("md") || NormalizeExtension(" ") != "" {
		t.Fatal("expected case and dot insensitive extensions")
	}
	if Stem("/data/notes.part1.txt") != "notes.part1" {
		t.Fatalf("unexpected stem %q", Stem("/data/notes.part1.txt"))
	}
}

func TestEstimateTokens(t *testing.T) {
	t.Setenv(TokenizerEnv, "heuristic")
	if EstimateTokens("") != 0 {
		t.Fatal("expected zero tokens for empty text")
	}
	if got := EstimateTokens("abcdefgh"); got != 2 {
		t.Fatalf("expected heuristic 2 tokens, got %d", got)
	}
}
