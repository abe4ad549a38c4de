package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"cogengine/internal/history"
	"cogengine/internal/services"
	"cogengine/internal/testsupport"
	"cogengine/internal/workflow"
)

func writeDocsWorkflow(t *testing.T, env *cliTestEnv) (string, string) {
	t.Helper()
	docs := filepath.Join(env.baseDir, "docs")
	testsupport.WriteText(t, filepath.Join(docs, "b.txt"), "B")
	testsupport.WriteText(t, filepath.Join(docs, "a.txt"), "A")
	report := filepath.Join(env.baseDir, "out", "report.md")

	path := testsupport.WriteText(t, filepath.Join(env.baseDir, "docs.yaml"), `
name: Docs Digest
steps:
  - id: load
    type: DirectoryLoader
    config:
      input_path: "`+filepath.Join(docs, "*.txt")+`"
  - id: join
    type: TextAggregator
    config:
      input_key: raw_files
      output_key: combined
  - id: report
    type: ReportWriterTask
    config:
      filename: "`+report+`"
      sections:
        - title: Combined
          content_key: combined
`)
	return path, report
}

func TestRunWorkflowEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t)
	path, report := writeDocsWorkflow(t, env)
	contextOut := filepath.Join(env.baseDir, "out", "context.json")

	out, _, err := runCLI(t, []string{"run", "--workflow", path, "--save-context", contextOut}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, `Workflow "Docs Digest" completed: 3 steps`)
	requireContains(t, out, "Context saved to "+contextOut)

	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	requireContains(t, string(data), "## Combined\n\nA\n\n---\n\nB")

	saved, err := os.ReadFile(contextOut)
	if err != nil {
		t.Fatalf("read context: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(saved, &decoded); err != nil {
		t.Fatalf("decode context: %v", err)
	}
	if decoded["combined"] != "A\n\n---\n\nB" {
		t.Fatalf("unexpected saved context %v", decoded["combined"])
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	runs, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != workflow.StatusCompleted || runs[0].StepsRun != 3 {
		t.Fatalf("unexpected history %+v", runs)
	}

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "Docs Digest")
	requireContains(t, out, "completed")

	out, _, err = runCLI(t, []string{"runs", "show", runs[0].RunID}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, "ReportWriterTask")
	requireContains(t, out, "join")
}

func TestRunSeedsContextFromFile(t *testing.T) {
	env := setupCLITestEnv(t)
	seed := testsupport.WriteText(t, filepath.Join(env.baseDir, "seed.json"), `{"items": ["x", "y"]}`)
	path := testsupport.WriteText(t, filepath.Join(env.baseDir, "join.yaml"), `
steps:
  - type: TextAggregator
    config: {input_key: items, output_key: joined, separator: "+"}
`)
	contextOut := filepath.Join(env.baseDir, "after.json")

	if _, _, err := runCLI(t, []string{"run", "-w", path, "--load-context", seed, "--save-context", contextOut, "--no-history"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(contextOut)
	if err != nil {
		t.Fatalf("read context: %v", err)
	}
	requireContains(t, string(data), `"joined": "x+y"`)

	store := testsupport.MustOpenHistory(t, env.cfg)
	if runs, _ := store.Recent(context.Background(), 0); len(runs) != 0 {
		t.Fatalf("expected --no-history to skip recording, got %+v", runs)
	}
}

func TestRunMissingWorkflowFile(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "--workflow", filepath.Join(env.baseDir, "nope.yaml")}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if services.ExitCode(err) == 0 {
		t.Fatal("expected non-zero exit code")
	}
}

func TestRunRequiresWorkflowFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err == nil {
		t.Fatal("expected error without --workflow")
	}
}

func TestRunUnknownTaskRecordsFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteText(t, filepath.Join(env.baseDir, "bad.yaml"), `
name: Broken
steps:
  - type: TextAggregator
    config: {input_key: missing, output_key: out}
  - type: NonExistentTask
`)
	_, _, err := runCLI(t, []string{"run", "--workflow", path}, env.configPath)
	if !errors.Is(err, services.ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey from first step, got %v", err)
	}

	path = testsupport.WriteText(t, filepath.Join(env.baseDir, "unknown.yaml"), `
name: Unknown
steps:
  - type: NonExistentTask
`)
	_, _, err = runCLI(t, []string{"run", "--workflow", path}, env.configPath)
	if services.ExitCode(err) != services.ExitTaskNotFound {
		t.Fatalf("expected task-not-found exit code, got %d (%v)", services.ExitCode(err), err)
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	runs, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 recorded runs, got %d", len(runs))
	}
	for _, run := range runs {
		if run.Status != workflow.StatusFailed || run.ErrorMessage == "" {
			t.Fatalf("expected failed run with error, got %+v", run)
		}
	}
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	env := setupCLITestEnv(t)
	path, _ := writeDocsWorkflow(t, env)

	held, err := acquireRunLock(env.cfg.LockDir(), "Docs Digest")
	if err != nil {
		t.Fatalf("acquireRunLock: %v", err)
	}
	defer held.Unlock()

	_, _, err = runCLI(t, []string{"run", "--workflow", path}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock conflict, got %v", err)
	}

	lockPath := filepath.Join(env.cfg.LockDir(), "docs_digest.lock")
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("expected lock file at %s: %v", lockPath, err)
	}
	other := flock.New(lockPath)
	if ok, _ := other.TryLock(); ok {
		t.Fatal("expected lock to still be held")
	}
}

func TestRunPreflightBlocksBrokenWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteText(t, filepath.Join(env.baseDir, "preflight.yaml"), `
steps:
  - type: DirectoryLoader
`)
	_, _, err := runCLI(t, []string{"run", "--workflow", path, "--preflight"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) || !strings.Contains(err.Error(), "checks failed") {
		t.Fatalf("expected preflight failure, got %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	path, _ := writeDocsWorkflow(t, env)

	out, _, err := runCLI(t, []string{"validate", path}, env.configPath)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	requireContains(t, out, `Workflow "Docs Digest" is valid (3 steps)`)
	requireContains(t, out, "2/3 join (TextAggregator)")

	bad := testsupport.WriteText(t, filepath.Join(env.baseDir, "bad.yaml"), "steps:\n  - type: Nope\n")
	if _, _, err := runCLI(t, []string{"validate", bad}, env.configPath); !errors.Is(err, services.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTasksCommandListsCatalog(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"tasks"}, env.configPath)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	for _, name := range []string{"DirectoryLoader\t", "BatchLLMTask\t", "CodebaseSnapshotTask\t", "ContextLoadTask\t"} {
		requireContains(t, out, name)
	}

	out, _, err = runCLI(t, []string{"tasks", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("tasks --json: %v", err)
	}
	var entries []taskEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("expected 10 tasks, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Description == "" {
			t.Fatalf("expected description for %s", entry.Name)
		}
	}
}

func TestRunsCommandEmptyAndPrune(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	out, _, err = runCLI(t, []string{"runs", "prune", "--older-than", "1h"}, env.configPath)
	if err != nil {
		t.Fatalf("runs prune: %v", err)
	}
	requireContains(t, out, "Pruned 0 runs")

	if _, _, err := runCLI(t, []string{"runs", "show", "missing"}, env.configPath); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown run, got %v", err)
	}
}

func TestRunsJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	path, _ := writeDocsWorkflow(t, env)
	if _, _, err := runCLI(t, []string{"run", "--workflow", path}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	out, _, err := runCLI(t, []string{"runs", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs --json: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Workflow != "Docs Digest" {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	path, _ := writeDocsWorkflow(t, env)

	out, _, err := runCLI(t, []string{"check", "--workflow", path}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "== Environment ==")
	requireContains(t, out, "== Workflow Docs Digest ==")
	requireContains(t, out, "[OK] 2 files match")

	broken := testsupport.WriteText(t, filepath.Join(env.baseDir, "broken.yaml"), "steps:\n  - type: DirectoryLoader\n")
	out, _, err = runCLI(t, []string{"check", "--workflow", broken}, env.configPath)
	if err == nil {
		t.Fatal("expected check failure")
	}
	requireContains(t, out, "[ERROR]")
}

func TestLoadEnvFile(t *testing.T) {
	const key = "COGENGINE_TEST_ENV_VALUE"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	envPath := testsupport.WriteText(t, filepath.Join(dir, ".env"), key+"=from-file\n")
	resolved, err := loadEnvFile(envPath)
	if err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}
	if resolved != envPath || os.Getenv(key) != "from-file" {
		t.Fatalf("expected env loaded from %s, got %q", resolved, os.Getenv(key))
	}

	if _, err := loadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
	if _, err := loadEnvFile(dir); err == nil {
		t.Fatal("expected error for directory env path")
	}
}
