package config

// Provider names accepted by [llm] provider and the per-step provider param.
const (
	ProviderMock       = "mock"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

const (
	defaultOutputDir         = "./outputs"
	defaultStateDir          = "~/.local/share/cogengine"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLLMProvider       = ProviderMock
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultLLMReferer        = "https://github.com/cogengine/cogengine"
	defaultLLMTitle          = "Cognitive Engine"
	defaultLLMTimeoutSeconds = 120
	defaultOllamaURL         = "http://localhost:11434"
	defaultOllamaModel       = "llama3.1"
	defaultWhisperXModel     = "base"
	defaultWhisperXVAD       = "silero"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		LLM: LLM{
			Provider:       defaultLLMProvider,
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			OllamaURL:      defaultOllamaURL,
			OllamaModel:    defaultOllamaModel,
		},
		WhisperX: WhisperX{
			Model:     defaultWhisperXModel,
			VADMethod: defaultWhisperXVAD,
		},
		Workflow: Workflow{
			HistoryEnabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
