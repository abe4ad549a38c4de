package workflow_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"cogengine/internal/services"
	"cogengine/internal/state"
	"cogengine/internal/task"
	"cogengine/internal/testsupport"
	"cogengine/internal/workflow"
)

// recordTask appends its step marker to the "trail" list.
type recordTask struct {
	calls *[]string
}

func (r *recordTask) Execute(_ context.Context, st *state.State, params task.Params) (*state.State, error) {
	marker, err := params.RequireString("marker")
	if err != nil {
		return nil, err
	}
	*r.calls = append(*r.calls, marker)
	trail, _ := st.Get("trail", []any{}).([]any)
	st.Set("trail", append(trail, marker))
	return st, nil
}

type failTask struct{}

func (failTask) Execute(context.Context, *state.State, task.Params) (*state.State, error) {
	return nil, services.Wrap(services.ErrExternalIO, "fail", "execute", "boom", nil)
}

type nilStateTask struct{}

func (nilStateTask) Execute(context.Context, *state.State, task.Params) (*state.State, error) {
	return nil, nil
}

type replaceTask struct{}

func (replaceTask) Execute(context.Context, *state.State, task.Params) (*state.State, error) {
	fresh := state.New()
	fresh.Set("replaced", true)
	return fresh, nil
}

type sleepTask struct{}

func (sleepTask) Execute(ctx context.Context, st *state.State, _ task.Params) (*state.State, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return st, nil
	}
}

type loggerTask struct {
	got **slog.Logger
}

func (l *loggerTask) SetLogger(logger *slog.Logger) { *l.got = logger }

func (l *loggerTask) Execute(_ context.Context, st *state.State, _ task.Params) (*state.State, error) {
	return st, nil
}

func newRegistry(t *testing.T, calls *[]string) *task.Registry {
	t.Helper()
	reg := task.NewRegistry()
	reg.MustRegister("Record", func() task.Task { return &recordTask{calls: calls} })
	reg.MustRegister("Fail", func() task.Task { return failTask{} })
	reg.MustRegister("NilState", func() task.Task { return nilStateTask{} })
	reg.MustRegister("Replace", func() task.Task { return replaceTask{} })
	reg.MustRegister("Sleep", func() task.Task { return sleepTask{} })
	return reg
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	var calls []string
	path := testsupport.WriteWorkflow(t, `
name: Ordered
steps:
  - id: first
    type: Record
    config: {marker: a}
  - type: Record
    config: {marker: b}
  - type: Record
    config: {marker: c}
`)
	engine, err := workflow.NewEngine(path, newRegistry(t, &calls))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if engine.Status() != workflow.StatusPending {
		t.Fatalf("expected pending status before run, got %s", engine.Status())
	}

	st, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(calls, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected call order %v", calls)
	}
	if got := st.Get("trail", nil).([]any); len(got) != 3 {
		t.Fatalf("unexpected trail %v", got)
	}
	if engine.Status() != workflow.StatusCompleted {
		t.Fatalf("expected completed status, got %s", engine.Status())
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	var calls []string
	path := testsupport.WriteWorkflow(t, `
steps:
  - type: Record
    config: {marker: a}
  - id: broken
    type: Fail
  - type: Record
    config: {marker: c}
`)
	engine, err := workflow.NewEngine(path, newRegistry(t, &calls))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	st, err := engine.Run(context.Background())
	var stepErr *workflow.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Index != 1 || stepErr.ID != "broken" || stepErr.Type != "Fail" {
		t.Fatalf("unexpected step coordinates %+v", stepErr)
	}
	if !errors.Is(err, services.ErrExternalIO) {
		t.Fatalf("expected cause to unwrap to ErrExternalIO, got %v", err)
	}
	if !slices.Equal(calls, []string{"a"}) {
		t.Fatalf("expected only the prefix to run, got %v", calls)
	}
	if st == nil || !st.Has("trail") {
		t.Fatal("expected partial state from completed prefix")
	}
	if engine.Status() != workflow.StatusFailed {
		t.Fatalf("expected failed status, got %s", engine.Status())
	}
}

func TestRunUnknownTypeHaltsBeforeLaterSteps(t *testing.T) {
	var calls []string
	path := testsupport.WriteWorkflow(t, `
name: Unknown
steps:
  - type: Record
    config: {marker: a}
  - type: NonExistentTask
  - type: Record
    config: {marker: c}
`)
	engine, err := workflow.NewEngine(path, newRegistry(t, &calls))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	_, err = engine.Run(context.Background())
	if !errors.Is(err, services.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "step_1") {
		t.Fatalf("expected default step id in error, got %v", err)
	}
	if !slices.Equal(calls, []string{"a"}) {
		t.Fatalf("expected no side effects after unknown step, got %v", calls)
	}
	if services.ExitCode(err) != services.ExitTaskNotFound {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
}

func TestRunRejectsNilState(t *testing.T) {
	var calls []string
	path := testsupport.WriteWorkflow(t, "steps:\n  - type: NilState\n")
	engine, err := workflow.NewEngine(path, newRegistry(t, &calls))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := engine.Run(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRunUsesReturnedState(t *testing.T) {
	var calls []string
	path := testsupport.WriteWorkflow(t, `
steps:
  - type: Record
    config: {marker: a}
  - type: Replace
`)
	seed := state.New()
	seed.Set("seeded", 1)
	engine, err := workflow.NewEngine(path, newRegistry(t, &calls), workflow.WithInitialState(seed))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	st, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Has("trail") || st.Has("seeded") || st.Get("replaced", false) != true {
		t.Fatalf("expected replacement state, got keys %v", st.Keys())
	}
	if seed.Has("trail") || seed.Len() != 1 {
		t.Fatalf("expected seed left untouched, got keys %v", seed.Keys())
	}
}

func TestRunStartsEachRunFromTheSeed(t *testing.T) {
	var calls []string
	path := testsupport.WriteWorkflow(t, "steps:\n  - type: Record\n    config: {marker: a}\n")
	seed := state.New()
	seed.Set("seeded", 1)
	engine, err := workflow.NewEngine(path, newRegistry(t, &calls), workflow.WithInitialState(seed))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	for i := range 2 {
		st, err := engine.Run(context.Background())
		if err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
		if trail := st.Get("trail", nil).([]any); len(trail) != 1 {
			t.Fatalf("run %d: expected a fresh trail, got %v", i, trail)
		}
		if st.Get("seeded", nil) != 1 {
			t.Fatalf("run %d: expected seed values, got keys %v", i, st.Keys())
		}
	}
}

func TestRunStepTimeout(t *testing.T) {
	var calls []string
	path := testsupport.WriteWorkflow(t, `
steps:
  - id: slow
    type: Sleep
    timeout: 20ms
`)
	engine, err := workflow.NewEngine(path, newRegistry(t, &calls))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	_, err = engine.Run(context.Background())
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestRunDefaultStepTimeout(t *testing.T) {
	var calls []string
	path := testsupport.WriteWorkflow(t, "steps:\n  - type: Sleep\n")
	engine, err := workflow.NewEngine(path, newRegistry(t, &calls), workflow.WithStepTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := engine.Run(context.Background()); !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestRunCancelledContextStopsBeforeFirstStep(t *testing.T) {
	var calls []string
	path := testsupport.WriteWorkflow(t, "steps:\n  - type: Record\n    config: {marker: a}\n")
	engine, err := workflow.NewEngine(path, newRegistry(t, &calls))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no steps to run, got %v", calls)
	}
}

func TestRunSetsStepLogger(t *testing.T) {
	var got *slog.Logger
	reg := task.NewRegistry()
	reg.MustRegister("Logger", func() task.Task { return &loggerTask{got: &got} })
	path := testsupport.WriteWorkflow(t, "steps:\n  - type: Logger\n")

	engine, err := workflow.NewEngine(path, reg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got == nil {
		t.Fatal("expected SetLogger to be called")
	}
}

type recordingObserver struct {
	started  []workflow.RunInfo
	steps    []workflow.StepEvent
	outcomes []workflow.RunOutcome
	failStep bool
}

func (o *recordingObserver) RunStarted(_ context.Context, run workflow.RunInfo) error {
	o.started = append(o.started, run)
	return nil
}

func (o *recordingObserver) StepFinished(_ context.Context, event workflow.StepEvent) error {
	o.steps = append(o.steps, event)
	if o.failStep {
		return errors.New("observer unavailable")
	}
	return nil
}

func (o *recordingObserver) RunFinished(_ context.Context, _ workflow.RunInfo, outcome workflow.RunOutcome) error {
	o.outcomes = append(o.outcomes, outcome)
	return nil
}

func TestObserverReceivesLifecycle(t *testing.T) {
	var calls []string
	path := testsupport.WriteWorkflow(t, `
name: Observed
steps:
  - type: Record
    config: {marker: a}
  - type: Fail
`)
	observer := &recordingObserver{failStep: true}
	engine, err := workflow.NewEngine(path, newRegistry(t, &calls),
		workflow.WithObserver(observer),
		workflow.WithRunID("run-123"),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if _, err := engine.Run(context.Background()); err == nil {
		t.Fatal("expected run failure")
	}
	if len(observer.started) != 1 || observer.started[0].RunID != "run-123" || observer.started[0].Workflow != "Observed" {
		t.Fatalf("unexpected run start events %+v", observer.started)
	}
	if len(observer.steps) != 2 || observer.steps[0].Err != nil || observer.steps[1].Err == nil {
		t.Fatalf("unexpected step events %+v", observer.steps)
	}
	if len(observer.outcomes) != 1 || observer.outcomes[0].Status != workflow.StatusFailed || observer.outcomes[0].StepsRun != 2 {
		t.Fatalf("unexpected outcomes %+v", observer.outcomes)
	}
}
