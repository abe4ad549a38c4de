// Package preflight provides readiness checks for a workflow before it runs.
//
// These checks run in two contexts:
//   - "cogengine check" runs RunAll for the configured environment and, when a
//     workflow is named, ForWorkflow for every step in it.
//   - "cogengine run --preflight" calls ForWorkflow and refuses to start when
//     any required check fails, so a doomed run never reaches its first model call.
//
// Network checks only run for backends the config or workflow actually selects.
package preflight
