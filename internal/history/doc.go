// Package history records workflow runs in a SQLite database.
//
// A Store implements workflow.Observer so the CLI can attach it to an engine
// and have every run and step outcome persisted. Migrations are embedded and
// applied on Open; callers only need a config with a state directory.
package history
