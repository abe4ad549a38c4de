package workflow

import (
	"context"
	"time"
)

// Status is the lifecycle state of an engine run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunInfo identifies one engine run.
type RunInfo struct {
	RunID     string
	Workflow  string
	Path      string
	StepCount int
	StartedAt time.Time
}

// StepEvent describes a finished step, successful or not.
type StepEvent struct {
	RunID     string
	Index     int
	ID        string
	Type      string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// RunOutcome describes a finished run.
type RunOutcome struct {
	Status     Status
	FinishedAt time.Time
	StepsRun   int
	Err        error
}

// Observer receives run lifecycle notifications. Observer errors are logged
// and never change the outcome of a run.
type Observer interface {
	RunStarted(ctx context.Context, run RunInfo) error
	StepFinished(ctx context.Context, event StepEvent) error
	RunFinished(ctx context.Context, run RunInfo, outcome RunOutcome) error
}
