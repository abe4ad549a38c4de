// Package services defines shared utilities consumed by the workflow engine,
// the task catalog, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, workflow names, step identifiers, and
//     task types for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified with errors.Is (configuration, missing key, task not found,
//     duplicate task, external IO, parse, validation, timeout).
//   - Exit code mapping used by the CLI at the process boundary.
//
// Use these helpers when writing new tasks so operational behaviour (error
// classification, observability) stays uniform across the pipeline.
package services
