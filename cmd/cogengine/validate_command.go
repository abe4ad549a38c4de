package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cogengine/internal/workflow"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow.yaml>",
		Short: "Parse a workflow and check that every step type is registered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.registry()
			if err != nil {
				return err
			}
			def, err := workflow.LoadDefinition(args[0])
			if err != nil {
				return err
			}
			if err := def.CheckTypes(reg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workflow %q is valid (%d steps)\n", def.Name, len(def.Steps))
			for _, step := range def.Steps {
				fmt.Fprintf(out, "  %s\n", step.Label(len(def.Steps)))
			}
			return nil
		},
	}
}
