package tasks_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cogengine/internal/config"
	"cogengine/internal/media/ffprobe"
	"cogengine/internal/services/llm"
	"cogengine/internal/state"
	"cogengine/internal/task"
	"cogengine/internal/tasks"
	"cogengine/internal/testsupport"
	"cogengine/internal/textutil"
	"cogengine/internal/workflow"
)

var fixedNow = time.Date(2026, time.March, 7, 9, 30, 0, 0, time.UTC)

// failingQuerier fails every prompt containing one of its triggers.
type failingQuerier struct {
	mu       sync.Mutex
	triggers []string
	prompts  []string
}

func (f *failingQuerier) Query(ctx context.Context, prompt, model string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	for _, trigger := range f.triggers {
		if strings.Contains(prompt, trigger) {
			return "", errors.New("upstream unavailable")
		}
	}
	return llm.NewMockClient().Query(ctx, prompt, model)
}

type fakeTranscriber struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeTranscriber) Transcribe(_ context.Context, source, _, model string) (string, error) {
	f.calls = append(f.calls, source+"@"+model)
	for suffix := range f.fail {
		if strings.HasSuffix(source, suffix) {
			return "", errors.New("whisperx exploded")
		}
	}
	return "  words from " + source[strings.LastIndex(source, "/")+1:] + "  ", nil
}

type harness struct {
	cfg  *config.Config
	reg  *task.Registry
	deps tasks.Deps
}

type harnessOption func(*tasks.Deps)

func withQuerier(q llm.Querier) harnessOption {
	return func(d *tasks.Deps) {
		d.Queriers = func(string) (llm.Querier, error) { return q, nil }
	}
}

func withProbe(probe tasks.ProbeFunc) harnessOption {
	return func(d *tasks.Deps) {
		d.Probe = probe
	}
}

func withTranscriber(tr tasks.Transcriber) harnessOption {
	return func(d *tasks.Deps) {
		d.Transcriber = func() tasks.Transcriber { return tr }
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	t.Setenv(textutil.TokenizerEnv, "heuristic")
	cfg := testsupport.NewConfig(t)
	deps := tasks.Deps{
		Config: cfg,
		Now:    func() time.Time { return fixedNow },
		Probe: func(context.Context, string) (ffprobe.Result, error) {
			return ffprobe.Result{}, errors.New("probe disabled")
		},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	reg := task.NewRegistry()
	if err := tasks.Register(reg, deps); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return &harness{cfg: cfg, reg: reg, deps: deps}
}

// execute runs a single task directly against st.
func (h *harness) execute(t *testing.T, name string, st *state.State, params task.Params) (*state.State, error) {
	t.Helper()
	tk, err := h.reg.Resolve(name)
	if err != nil {
		t.Fatalf("Resolve %s: %v", name, err)
	}
	return tk.Execute(context.Background(), st, params)
}

// run executes a workflow document through the engine.
func (h *harness) run(t *testing.T, doc string) (*state.State, error) {
	t.Helper()
	engine, err := workflow.NewEngine(testsupport.WriteWorkflow(t, doc), h.reg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine.Run(context.Background())
}
