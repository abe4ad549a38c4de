// Package state holds the key/value container shared by the steps of a
// workflow run, the typed accessors tasks use at their boundaries, and the
// JSON persistence used for manual checkpoints.
package state
