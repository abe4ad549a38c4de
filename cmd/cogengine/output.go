package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON on the command's stdout. Every --json
// flag goes through here so scripts see one format.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// formatDuration renders run and step durations; zero means "not finished".
func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
