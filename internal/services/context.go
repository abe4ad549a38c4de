package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	workflowKey contextKey = "workflow"
	stepKey     contextKey = "step"
	taskTypeKey contextKey = "task_type"
)

// WithRunID annotates context with the workflow run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithWorkflow annotates context with the workflow name.
func WithWorkflow(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, workflowKey, name)
}

// WorkflowFromContext returns the workflow name if present.
func WorkflowFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(workflowKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStep annotates context with the executing step identifier and task type.
func WithStep(ctx context.Context, stepID, taskType string) context.Context {
	if stepID != "" {
		ctx = context.WithValue(ctx, stepKey, stepID)
	}
	if taskType != "" {
		ctx = context.WithValue(ctx, taskTypeKey, taskType)
	}
	return ctx
}

// StepFromContext returns the step identifier if present.
func StepFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stepKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// TaskTypeFromContext returns the task type of the executing step if present.
func TaskTypeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(taskTypeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
