package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeWhisperX()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	if value, ok := os.LookupEnv("COGENGINE_LLM_PROVIDER"); ok && strings.TrimSpace(value) != "" {
		c.LLM.Provider = value
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultLLMProvider
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = value
		}
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if value, ok := os.LookupEnv("OLLAMA_HOST"); ok && strings.TrimSpace(c.LLM.OllamaURL) == defaultOllamaURL {
		c.LLM.OllamaURL = value
	}
	c.LLM.OllamaURL = strings.TrimSpace(c.LLM.OllamaURL)
	if c.LLM.OllamaURL == "" {
		c.LLM.OllamaURL = defaultOllamaURL
	}
	c.LLM.OllamaModel = strings.TrimSpace(c.LLM.OllamaModel)
	if c.LLM.OllamaModel == "" {
		c.LLM.OllamaModel = defaultOllamaModel
	}
}

func (c *Config) normalizeWhisperX() {
	c.WhisperX.Model = strings.TrimSpace(c.WhisperX.Model)
	if c.WhisperX.Model == "" {
		c.WhisperX.Model = defaultWhisperXModel
	}
	c.WhisperX.VADMethod = strings.ToLower(strings.TrimSpace(c.WhisperX.VADMethod))
	if c.WhisperX.VADMethod == "" {
		c.WhisperX.VADMethod = defaultWhisperXVAD
	}
	if strings.TrimSpace(c.WhisperX.HFToken) == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		}
	}
	c.WhisperX.Language = strings.TrimSpace(c.WhisperX.Language)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.TaskOverrides) > 0 {
		cleaned := make(map[string]string, len(c.Logging.TaskOverrides))
		for task, level := range c.Logging.TaskOverrides {
			task = strings.TrimSpace(task)
			level = strings.ToLower(strings.TrimSpace(level))
			if task == "" || level == "" {
				continue
			}
			cleaned[task] = level
		}
		c.Logging.TaskOverrides = cleaned
	}
}
