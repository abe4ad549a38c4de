package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cogengine/internal/task"
)

type taskEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HealthCheck bool   `json:"health_check"`
}

func newTasksCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the registered task types",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.registry()
			if err != nil {
				return err
			}
			entries, err := describeTasks(reg)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if !shouldColorize(out) {
				for _, entry := range entries {
					fmt.Fprintf(out, "%s\t%s\n", entry.Name, entry.Description)
				}
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{entry.Name, entry.Description, yesNo(entry.HealthCheck)})
			}
			fmt.Fprintln(out, renderTable([]string{"Task", "Description", "Preflight"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func describeTasks(reg *task.Registry) ([]taskEntry, error) {
	names := reg.Names()
	entries := make([]taskEntry, 0, len(names))
	for _, name := range names {
		t, err := reg.Resolve(name)
		if err != nil {
			return nil, err
		}
		entry := taskEntry{Name: name}
		if d, ok := t.(task.Describer); ok {
			entry.Description = d.Describe()
		}
		_, entry.HealthCheck = t.(task.HealthChecker)
		entries = append(entries, entry)
	}
	return entries, nil
}
