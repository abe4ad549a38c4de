package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"cogengine/internal/services"
)

// OllamaClient queries a local model server through langchaingo.
type OllamaClient struct {
	model     llms.Model
	modelName string
}

// NewOllamaClient connects to the Ollama server at serverURL. The connection
// is lazy; nothing is contacted until the first query.
func NewOllamaClient(serverURL, model string) (*OllamaClient, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if strings.TrimSpace(serverURL) != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	backend, err := ollama.New(opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "llm", "new ollama client", serverURL, err)
	}
	return NewOllamaClientWithModel(backend, model), nil
}

// NewOllamaClientWithModel wraps an existing langchaingo model. Tests use it
// to substitute a fake.
func NewOllamaClientWithModel(model llms.Model, modelName string) *OllamaClient {
	return &OllamaClient{model: model, modelName: strings.TrimSpace(modelName)}
}

// Query sends prompt at temperature 0. An empty or "default" model uses the
// configured one.
func (c *OllamaClient) Query(ctx context.Context, prompt, model string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "ollama query", "prompt is empty", nil)
	}
	model = strings.TrimSpace(model)
	if model == "" || model == DefaultModel {
		model = c.modelName
	}
	opts := []llms.CallOption{llms.WithTemperature(0)}
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, opts...)
	if err != nil {
		return "", services.Wrap(services.ErrExternalIO, "llm", "ollama query", fmt.Sprintf("model %s", model), err)
	}
	return strings.TrimSpace(out), nil
}
