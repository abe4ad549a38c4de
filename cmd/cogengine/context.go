package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cogengine/internal/config"
	"cogengine/internal/logging"
	"cogengine/internal/services"
	"cogengine/internal/task"
	"cogengine/internal/tasks"
)

type commandContext struct {
	configFlag *string
	envFlag    *string
	debugFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, envFlag *string, debugFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		envFlag:    envFlag,
		debugFlag:  debugFlag,
	}
}

func (c *commandContext) loadEnv() error {
	if c.envFlag == nil {
		return nil
	}
	_, err := loadEnvFile(*c.envFlag)
	return err
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", resolved, err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// ensureLogger builds the CLI logger. Records go to stderr so command output
// on stdout stays parseable; a JSON copy lands in the log directory when one
// is configured.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		opts := logging.OptionsFromConfig(cfg)
		opts.OutputPaths = []string{"stderr"}
		if c.debugFlag != nil && *c.debugFlag {
			opts.Level = "debug"
		}
		logger, err := logging.New(opts)
		if err != nil {
			c.loggerErr = services.Wrap(services.ErrConfiguration, "logging", "init", "", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// registry returns a task registry holding the built-in catalog.
func (c *commandContext) registry() (*task.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	reg := task.NewRegistry()
	if err := tasks.Register(reg, tasks.Deps{Config: cfg, Logger: logger}); err != nil {
		return nil, fmt.Errorf("register tasks: %w", err)
	}
	return reg, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
