package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"cogengine/internal/config"
)

// ConfigOption adjusts a test config after the temp layout is in place.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns a config rooted in t.TempDir() with the mock LLM
// provider selected, so nothing reaches the network unless an option says so.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(root, "outputs")
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Paths.LogDir = ""
	cfg.LLM.Provider = config.ProviderMock
	cfg.LLM.APIKey = "test"

	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

// WithProvider selects the default LLM provider.
func WithProvider(provider string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.LLM.Provider = provider
	}
}

// WithHostedLLM points the hosted chat-completion client at baseURL.
func WithHostedLLM(baseURL string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.LLM.Provider = config.ProviderOpenRouter
		cfg.LLM.BaseURL = baseURL
		cfg.LLM.APIKey = "test-key"
		cfg.LLM.Model = "test/model"
	}
}

// WithStubbedBinaries puts no-op executables named names first on PATH for
// the rest of the test. With no names it stubs uvx and ffmpeg.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		t.Helper()
		if len(names) == 0 {
			names = []string{"uvx", "ffmpeg"}
		}
		binDir := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp root NewConfig laid the directories out under.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
