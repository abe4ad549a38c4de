package config

import (
	"maps"
	"path/filepath"
	"strings"
)

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// LLM contains the model backend settings shared by every LLM-calling task.
// Provider selects the backend used when a step does not name one.
type LLM struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	OllamaURL      string `toml:"ollama_url"`
	OllamaModel    string `toml:"ollama_model"`
}

// WhisperX contains configuration for audio transcription.
type WhisperX struct {
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
	Language    string `toml:"language"`
}

// Workflow contains engine execution settings.
type Workflow struct {
	StepTimeoutSeconds int  `toml:"step_timeout_seconds"`
	HistoryEnabled     bool `toml:"history_enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string            `toml:"format"`
	Level         string            `toml:"level"`
	TaskOverrides map[string]string `toml:"task_overrides"`
}

// Config is the decoded cogengine.toml. Workflow files never see it directly;
// tasks receive it through their dependencies.
type Config struct {
	Paths    Paths    `toml:"paths"`
	LLM      LLM      `toml:"llm"`
	WhisperX WhisperX `toml:"whisperx"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// HistoryPath returns the location of the run history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockDir returns the directory holding per-workflow run locks.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// LLMConfig is the hosted chat-completion connection.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the hosted connection settings. Values are already trimmed
// by Load.
func (c *Config) GetLLM() LLMConfig {
	l := c.LLM
	return LLMConfig{
		APIKey:         l.APIKey,
		BaseURL:        l.BaseURL,
		Model:          l.Model,
		Referer:        strings.TrimSpace(l.Referer),
		Title:          strings.TrimSpace(l.Title),
		TimeoutSeconds: l.TimeoutSeconds,
	}
}

// LocalLLMConfig contains the local model-serving settings.
type LocalLLMConfig struct {
	ServerURL string
	Model     string
}

// LocalLLM returns the Ollama settings.
func (c *Config) LocalLLM() LocalLLMConfig {
	return LocalLLMConfig{ServerURL: c.LLM.OllamaURL, Model: c.LLM.OllamaModel}
}

const redactedValue = "<redacted>"

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	out := c
	if out.LLM.APIKey != "" {
		out.LLM.APIKey = redactedValue
	}
	if out.WhisperX.HFToken != "" {
		out.WhisperX.HFToken = redactedValue
	}
	out.Logging.TaskOverrides = maps.Clone(c.Logging.TaskOverrides)
	return out
}
