// Package logging assembles structured slog loggers used across cogengine.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// context helpers that tag log lines with run IDs, workflow names, step IDs,
// and task types. Per-task level overrides are applied automatically when a
// logger gains a task_type attribute. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
