package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cogengine/internal/logging"
	"cogengine/internal/logs"
	"cogengine/internal/services"
)

const followWait = time.Second

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var runID string
	var step string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the cogengine log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Paths.LogDir) == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "logs", "paths.log_dir is not set; file logging is disabled", nil)
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)

			var filters []logs.Match
			if runID = strings.TrimSpace(runID); runID != "" {
				filters = append(filters, logs.ForRun(runID))
			}
			if step = strings.TrimSpace(step); step != "" {
				filters = append(filters, logs.FieldEquals(logging.FieldStep, step))
			}
			var match logs.Match
			if len(filters) > 0 {
				match = logs.All(filters...)
			}

			opts := logs.TailOptions{Offset: -1, Limit: max(lines, 0), Match: match}
			if opts.Limit == 0 {
				opts.Offset = 0
			}
			out := cmd.OutOrStdout()
			printed := false
			for {
				result, err := logs.Tail(cmd.Context(), path, opts)
				if err != nil {
					if errors.Is(err, cmd.Context().Err()) {
						return nil
					}
					return services.Wrap(services.ErrExternalIO, "cli", "logs", path, err)
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
					printed = true
				}
				if !follow {
					if !printed {
						fmt.Fprintln(out, "No log entries available")
					}
					return nil
				}
				if cmd.Context().Err() != nil {
					return nil
				}
				opts = logs.TailOptions{Offset: result.Offset, Follow: true, Wait: followWait, Match: match}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines from this run id")
	cmd.Flags().StringVar(&step, "step", "", "Only show lines from this step id")
	return cmd
}
