package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cogengine/internal/history"
	"cogengine/internal/logging"
	"cogengine/internal/preflight"
	"cogengine/internal/services"
	"cogengine/internal/state"
	"cogengine/internal/textutil"
	"cogengine/internal/workflow"
)

type runOptions struct {
	workflowPath string
	preflight    bool
	noHistory    bool
	loadContext  string
	saveContext  string
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a workflow file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.workflowPath, "workflow", "w", "", "Workflow YAML file to execute")
	cmd.Flags().BoolVar(&opts.preflight, "preflight", false, "Run readiness checks and refuse to start when any fail")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record this run in the history database")
	cmd.Flags().StringVar(&opts.loadContext, "load-context", "", "Seed the run with a saved context JSON file")
	cmd.Flags().StringVar(&opts.saveContext, "save-context", "", "Write the final context to this JSON file")
	_ = cmd.MarkFlagRequired("workflow")
	return cmd
}

func runWorkflow(cmd *cobra.Command, ctx *commandContext, opts runOptions) error {
	path := strings.TrimSpace(opts.workflowPath)
	if path == "" {
		return services.Wrap(services.ErrConfiguration, "cli", "run", "--workflow is required", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "run", fmt.Sprintf("workflow file not found: %s", path), err)
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	reg, err := ctx.registry()
	if err != nil {
		return err
	}
	def, err := workflow.LoadDefinition(path)
	if err != nil {
		return err
	}

	lock, err := acquireRunLock(cfg.LockDir(), def.Name)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(logger, "failed to release run lock", "lock_release_failed",
				logging.String("lock", lock.Path()),
				logging.Error(err),
			)
		}
	}()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.preflight {
		if err := preflight.Err(preflight.ForWorkflow(runCtx, cfg, def, reg)); err != nil {
			return err
		}
	}

	initial := state.New()
	if opts.loadContext != "" {
		restored, err := initial.Restore(opts.loadContext)
		if err != nil {
			return err
		}
		if !restored {
			logging.WarnWithContext(logger, "seed context file not found", "context_missing",
				logging.String("path", opts.loadContext),
			)
		}
	}

	engineOpts := []workflow.Option{
		workflow.WithLogger(logger),
		workflow.WithInitialState(initial),
	}
	if seconds := cfg.Workflow.StepTimeoutSeconds; seconds > 0 {
		engineOpts = append(engineOpts, workflow.WithStepTimeout(time.Duration(seconds)*time.Second))
	}
	if cfg.Workflow.HistoryEnabled && !opts.noHistory {
		store, err := history.Open(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		engineOpts = append(engineOpts, workflow.WithObserver(store))
	}

	engine, err := workflow.NewEngineFromDefinition(def, reg, engineOpts...)
	if err != nil {
		return err
	}
	st, runErr := engine.Run(runCtx)
	if runErr != nil {
		return runErr
	}

	if opts.saveContext != "" {
		if err := st.Persist(opts.saveContext); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Workflow %q completed: %d steps, %d context keys\n", def.Name, len(def.Steps), st.Len())
	if opts.saveContext != "" {
		fmt.Fprintf(out, "Context saved to %s\n", opts.saveContext)
	}
	return nil
}

// acquireRunLock takes a non-blocking file lock so the same workflow cannot run
// twice concurrently against one state directory.
func acquireRunLock(lockDir, workflowName string) (*flock.Flock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrExternalIO, "cli", "lock", "create lock directory", err)
	}
	lockPath := filepath.Join(lockDir, textutil.SanitizeToken(workflowName)+".lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalIO, "cli", "lock", "acquire run lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "cli", "lock",
			fmt.Sprintf("workflow %q is already running (lock %s)", workflowName, lockPath), nil)
	}
	return lock, nil
}

