// Package workflow loads YAML workflow definitions and executes them.
//
// A definition is an ordered list of steps, each naming a task type from a
// task.Registry plus a config mapping. The Engine resolves a fresh task per
// step, threads one state.State through every step, and stops at the first
// failure with a *StepError that names the step and unwraps to the cause.
// There is no retry, skip, or rollback; the partial State stays available for
// inspection. Per-step deadlines come from the step's timeout field or the
// engine default, and caller cancellation is checked before each step.
//
// Observers (the run history store, for example) receive run and step
// lifecycle events; their failures are logged and do not affect the run.
package workflow
