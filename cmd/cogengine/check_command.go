package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cogengine/internal/preflight"
	"cogengine/internal/workflow"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var workflowPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the environment and, optionally, a workflow's prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			printResults(out, "Environment", results, colorize)

			if path := strings.TrimSpace(workflowPath); path != "" {
				reg, err := ctx.registry()
				if err != nil {
					return err
				}
				def, err := workflow.LoadDefinition(path)
				if err != nil {
					return err
				}
				stepResults := preflight.ForWorkflow(cmd.Context(), cfg, def, reg)
				fmt.Fprintln(out)
				printResults(out, fmt.Sprintf("Workflow %s", def.Name), stepResults, colorize)
				results = append(results, stepResults...)
			}
			return preflight.Err(results)
		},
	}
	cmd.Flags().StringVarP(&workflowPath, "workflow", "w", "", "Also check every step of this workflow")
	return cmd
}
