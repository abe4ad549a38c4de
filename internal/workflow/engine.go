package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cogengine/internal/logging"
	"cogengine/internal/services"
	"cogengine/internal/state"
	"cogengine/internal/task"
)

// Engine runs the steps of one workflow definition in order against a single
// shared State. The first failing step stops the run.
type Engine struct {
	def         *Definition
	registry    *task.Registry
	logger      *slog.Logger
	observers   []Observer
	initial     *state.State
	stepTimeout time.Duration
	runID       string
	now         func() time.Time

	status Status
	state  *state.State
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the base logger. Step loggers derive from it.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers an observer for run lifecycle events.
func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		if observer != nil {
			e.observers = append(e.observers, observer)
		}
	}
}

// WithInitialState seeds each run with a copy of st instead of an empty
// State. st itself is never modified.
func WithInitialState(st *state.State) Option {
	return func(e *Engine) {
		e.initial = st
	}
}

// WithStepTimeout sets the deadline applied to steps that do not declare one.
// Zero disables it.
func WithStepTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.stepTimeout = timeout
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.runID = id
	}
}

// NewEngine loads the workflow at path and prepares it for execution against registry.
func NewEngine(path string, registry *task.Registry, opts ...Option) (*Engine, error) {
	def, err := LoadDefinition(path)
	if err != nil {
		return nil, err
	}
	return NewEngineFromDefinition(def, registry, opts...)
}

// NewEngineFromDefinition prepares an already parsed definition for execution.
func NewEngineFromDefinition(def *Definition, registry *task.Registry, opts ...Option) (*Engine, error) {
	if def == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "engine", "definition is required", nil)
	}
	if registry == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "engine", "task registry is required", nil)
	}
	e := &Engine{
		def:      def,
		registry: registry,
		logger:   logging.NewNop(),
		now:      time.Now,
		status:   StatusPending,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Definition returns the loaded workflow definition.
func (e *Engine) Definition() *Definition {
	return e.def
}

// Status reports the lifecycle state of the most recent run.
func (e *Engine) Status() Status {
	return e.status
}

// State returns the working State of the most recent run, including the
// partial state left by a failed run.
func (e *Engine) State() *state.State {
	return e.state
}

// Run executes every step in order and returns the final State. On failure
// the returned error is a *StepError and no later step runs.
func (e *Engine) Run(ctx context.Context) (*state.State, error) {
	runID := e.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithWorkflow(ctx, e.def.Name)
	runLogger := logging.WithContext(ctx, e.logger)

	// Every run starts from its own copy of the seed.
	st := state.New()
	if e.initial != nil {
		st = state.FromMap(e.initial.Snapshot())
	}
	e.state = st
	e.status = StatusRunning

	run := RunInfo{
		RunID:     runID,
		Workflow:  e.def.Name,
		Path:      e.def.Path,
		StepCount: len(e.def.Steps),
		StartedAt: e.now(),
	}
	e.notify(runLogger, "run_started", func(o Observer) error { return o.RunStarted(ctx, run) })

	runLogger.Info(
		"workflow started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("steps", len(e.def.Steps)),
		logging.String("path", e.def.Path),
	)

	for _, step := range e.def.Steps {
		next, err := e.runStep(ctx, runID, step, st)
		if err != nil {
			e.status = StatusFailed
			e.finish(ctx, runLogger, run, RunOutcome{Status: StatusFailed, StepsRun: step.Index + 1, Err: err})
			runLogger.Error(
				"workflow failed",
				logging.String(logging.FieldEventType, "run_failure"),
				logging.String(logging.FieldStep, step.ID),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
				logging.Duration("elapsed", e.now().Sub(run.StartedAt)),
				logging.Error(err),
			)
			return st, err
		}
		st = next
		e.state = st
	}

	e.status = StatusCompleted
	e.finish(ctx, runLogger, run, RunOutcome{Status: StatusCompleted, StepsRun: len(e.def.Steps)})
	runLogger.Info(
		"workflow completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("context_keys", st.Len()),
		logging.Duration("elapsed", e.now().Sub(run.StartedAt)),
	)
	return st, nil
}

func (e *Engine) runStep(ctx context.Context, runID string, step Step, st *state.State) (*state.State, error) {
	stepCtx := services.WithStep(ctx, step.ID, step.Type)
	stepLogger := logging.WithContext(stepCtx, e.logger)
	started := e.now()

	fail := func(cause error) error {
		stepErr := &StepError{Index: step.Index, ID: step.ID, Type: step.Type, Err: cause}
		stepLogger.Error(
			"step failed",
			logging.String(logging.FieldEventType, "step_failure"),
			logging.String(logging.FieldErrorKind, services.Kind(cause)),
			logging.String(logging.FieldErrorHint, errorHint(cause)),
			logging.Error(cause),
		)
		e.stepFinished(stepCtx, stepLogger, StepEvent{
			RunID: runID, Index: step.Index, ID: step.ID, Type: step.Type,
			StartedAt: started, Duration: e.now().Sub(started), Err: stepErr,
		})
		return stepErr
	}

	if err := ctx.Err(); err != nil {
		return nil, fail(fmt.Errorf("run cancelled before step: %w", err))
	}

	stepLogger.Info(
		"step started",
		logging.String(logging.FieldEventType, "step_start"),
		logging.String("progress", fmt.Sprintf("%d/%d", step.Index+1, len(e.def.Steps))),
	)

	tk, err := e.registry.Resolve(step.Type)
	if err != nil {
		return nil, fail(err)
	}
	if aware, ok := tk.(task.LoggerAware); ok {
		aware.SetLogger(stepLogger)
	}

	execCtx := stepCtx
	timeout := step.Timeout
	if timeout == 0 {
		timeout = e.stepTimeout
	}
	cancel := func() {}
	if timeout > 0 {
		execCtx, cancel = context.WithTimeout(stepCtx, timeout)
	}
	next, err := tk.Execute(execCtx, st, step.Config)
	deadlineHit := errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	cancel()

	switch {
	case err != nil && deadlineHit && !errors.Is(err, services.ErrTimeout):
		return nil, fail(services.Wrap(services.ErrTimeout, "workflow", step.ID, fmt.Sprintf("step exceeded timeout %s", timeout), err))
	case err != nil:
		return nil, fail(err)
	case next == nil:
		return nil, fail(services.Wrap(services.ErrValidation, "workflow", step.ID, "task returned no context", nil))
	}

	duration := e.now().Sub(started)
	stepLogger.Info(
		"step completed",
		logging.String(logging.FieldEventType, "step_complete"),
		logging.Duration("duration", duration),
		logging.Int("context_keys", next.Len()),
	)
	e.stepFinished(stepCtx, stepLogger, StepEvent{
		RunID: runID, Index: step.Index, ID: step.ID, Type: step.Type,
		StartedAt: started, Duration: duration,
	})
	return next, nil
}

func (e *Engine) stepFinished(ctx context.Context, logger *slog.Logger, event StepEvent) {
	e.notify(logger, "step_finished", func(o Observer) error { return o.StepFinished(ctx, event) })
}

func (e *Engine) finish(ctx context.Context, logger *slog.Logger, run RunInfo, outcome RunOutcome) {
	outcome.FinishedAt = e.now()
	// Observers record the outcome even when the run context was cancelled.
	observerCtx := context.WithoutCancel(ctx)
	e.notify(logger, "run_finished", func(o Observer) error { return o.RunFinished(observerCtx, run, outcome) })
}

func (e *Engine) notify(logger *slog.Logger, event string, fn func(Observer) error) {
	for _, observer := range e.observers {
		if err := fn(observer); err != nil {
			logging.WarnWithContext(logger, "run observer failed", "observer_error",
				logging.String("observer_event", event),
				logging.String(logging.FieldErrorHint, "run history may be incomplete"),
				logging.Error(err),
			)
		}
	}
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		return "check the step type spelling; run 'cogengine tasks' to list registered tasks"
	case errors.Is(err, services.ErrMissingKey):
		return "an earlier step must write this key; check input_key/output_key wiring"
	case errors.Is(err, services.ErrConfiguration):
		return "check the step config in the workflow file"
	case errors.Is(err, services.ErrTimeout):
		return "raise the step timeout or reduce the input size"
	case errors.Is(err, services.ErrExternalIO):
		return "check file paths, binaries, and network endpoints used by the step"
	default:
		return "check logs for details"
	}
}
