package task

import (
	"context"
	"log/slog"

	"cogengine/internal/state"
)

// Task is one unit of work in a workflow. Execute reads and writes st and
// returns the State the next step should see, normally st itself.
type Task interface {
	Execute(ctx context.Context, st *state.State, params Params) (*state.State, error)
}

// LoggerAware is implemented by tasks that accept a step-scoped logger before
// Execute is called.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}

// Describer is implemented by tasks that provide a one-line summary for listings.
type Describer interface {
	Describe() string
}

// HealthChecker is implemented by tasks with external prerequisites that can be
// verified before a run (binaries, endpoints, input paths).
type HealthChecker interface {
	HealthCheck(ctx context.Context, params Params) Health
}

// Health summarizes the readiness of a step's task.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
