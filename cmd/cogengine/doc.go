// Package main hosts the cogengine CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration, builds the task registry,
// and hands workflow files to the engine. It also surfaces run history,
// readiness checks, and configuration scaffolding. Configuration resolution,
// .env loading, and logger setup live in commandContext so subcommands only
// describe their own behaviour.
//
// Keep this package lean: new behaviour belongs in the internal packages first
// and is surfaced here through dedicated commands or flags.
package main
