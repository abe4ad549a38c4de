// Package logs reads the cogengine log file for the `logs` command.
//
// Tail returns the last N lines (or everything after a byte offset) with
// bounded memory, and can wait for new lines in follow mode. Match filters
// narrow the output to one run or one step using the JSON fields the
// logging package writes.
package logs
