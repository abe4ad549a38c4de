package config

import (
	"errors"
	"fmt"

	"cogengine/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateWhisperX(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case ProviderMock, ProviderOpenRouter, ProviderOllama:
	default:
		return fmt.Errorf("llm.provider must be one of %q, %q, %q (got %q)", ProviderMock, ProviderOpenRouter, ProviderOllama, c.LLM.Provider)
	}
	if c.LLM.Provider == ProviderOpenRouter && c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cogengine/config.toml"
		}
		return fmt.Errorf("llm.api_key is required for provider %q. Set OPENROUTER_API_KEY or edit %s (create with 'cogengine config init')", ProviderOpenRouter, defaultPath)
	}
	return nil
}

func (c *Config) validateWhisperX() error {
	switch c.WhisperX.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("whisperx.vad_method must be silero or pyannote (got %q)", c.WhisperX.VADMethod)
	}
	if c.WhisperX.Language != "" && language.ToISO2(c.WhisperX.Language) == "" {
		return fmt.Errorf("whisperx.language %q is not a recognized language", c.WhisperX.Language)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.StepTimeoutSeconds < 0 {
		return errors.New("workflow.step_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	for task, level := range c.Logging.TaskOverrides {
		switch level {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("logging.task_overrides.%s: unsupported level %q", task, level)
		}
	}
	return nil
}
