package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cogengine/internal/history"
	"cogengine/internal/services"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recorded workflow runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.RunID,
						run.Workflow,
						string(run.Status),
						fmt.Sprintf("%d/%d", run.StepsRun, run.StepCount),
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						formatDuration(run.Duration()),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Workflow", "Status", "Steps", "Started", "Duration"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	cmd.AddCommand(newRunsShowCommand(ctx))
	cmd.AddCommand(newRunsPruneCommand(ctx))
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the steps of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, ok, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return services.Wrap(services.ErrValidation, "cli", "runs show", fmt.Sprintf("run %s not found", args[0]), nil)
				}
				steps, err := store.Steps(cmd.Context(), run.RunID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s: %s (%s)\n", run.RunID, run.Workflow, run.Status)
				if run.Path != "" {
					fmt.Fprintf(out, "File: %s\n", run.Path)
				}
				if run.ErrorMessage != "" {
					fmt.Fprintf(out, "Error [%s]: %s\n", run.ErrorKind, run.ErrorMessage)
				}
				rows := make([][]string, 0, len(steps))
				for _, step := range steps {
					rows = append(rows, []string{
						strconv.Itoa(step.Index + 1),
						step.ID,
						step.Type,
						string(step.Status),
						formatDuration(step.Duration),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Step", "Type", "Status", "Duration"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return services.Wrap(services.ErrValidation, "cli", "runs prune", "--older-than must be positive", nil)
			}
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d runs\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age threshold for deletion")
	return cmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

