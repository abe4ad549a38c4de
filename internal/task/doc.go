// Package task defines the contract every workflow step implements, the typed
// parameter accessors tasks use to read their step config, and the registry
// that maps task type names to factories.
//
// Task packages expose a Register function that binds their factories into a
// Registry built by the caller; the engine resolves a fresh task per step.
package task
