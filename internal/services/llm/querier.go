package llm

import (
	"context"
	"fmt"
	"strings"

	"cogengine/internal/config"
	"cogengine/internal/services"
)

// DefaultModel is the model alias that resolves to the provider's configured model.
const DefaultModel = "default"

// Querier sends a single prompt to a model and returns the completion text.
type Querier interface {
	Query(ctx context.Context, prompt, model string) (string, error)
}

// NewQuerier builds the backend for provider. An empty provider uses the
// configured one.
func NewQuerier(provider string, cfg *config.Config) (Querier, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "llm", "new querier", "config is nil", nil)
	}
	switch normalizeProvider(provider, cfg) {
	case config.ProviderMock:
		return NewMockClient(), nil
	case config.ProviderOpenRouter:
		hosted := cfg.GetLLM()
		if hosted.APIKey == "" {
			return nil, services.Wrap(services.ErrConfiguration, "llm", "new querier", "openrouter provider requires llm.api_key or OPENROUTER_API_KEY", nil)
		}
		return NewClient(Config(hosted)), nil
	case config.ProviderOllama:
		local := cfg.LocalLLM()
		return NewOllamaClient(local.ServerURL, local.Model)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "llm", "new querier", fmt.Sprintf("unknown provider %q", provider), nil)
	}
}

// ResolveModel maps the "default" alias (or an empty name) onto the model the
// provider is configured with. The mock provider keeps the alias so its canned
// output names it.
func ResolveModel(provider, model string, cfg *config.Config) string {
	model = strings.TrimSpace(model)
	if model != "" && model != DefaultModel {
		return model
	}
	if cfg == nil {
		return DefaultModel
	}
	switch normalizeProvider(provider, cfg) {
	case config.ProviderOpenRouter:
		if m := cfg.GetLLM().Model; m != "" {
			return m
		}
	case config.ProviderOllama:
		if m := cfg.LocalLLM().Model; m != "" {
			return m
		}
	}
	return DefaultModel
}

func normalizeProvider(provider string, cfg *config.Config) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || provider == DefaultModel {
		provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	}
	if provider == "" {
		provider = config.ProviderMock
	}
	return provider
}
