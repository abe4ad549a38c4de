package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"cogengine/internal/services"
)

type fakeModel struct {
	prompts []string
	opts    llms.CallOptions
	reply   string
	err     error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, opt := range options {
		opt(&f.opts)
	}
	for _, message := range messages {
		for _, part := range message.Parts {
			if text, ok := part.(llms.TextContent); ok {
				f.prompts = append(f.prompts, text.Text)
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestOllamaClientQuery(t *testing.T) {
	fake := &fakeModel{reply: " local answer \n"}
	client := NewOllamaClientWithModel(fake, "llama3.1")

	out, err := client.Query(context.Background(), "explain", "default")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if out != "local answer" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(fake.prompts) != 1 || fake.prompts[0] != "explain" {
		t.Fatalf("unexpected prompts %v", fake.prompts)
	}
	if fake.opts.Model != "llama3.1" || fake.opts.Temperature != 0 {
		t.Fatalf("unexpected call options %+v", fake.opts)
	}
}

func TestOllamaClientQueryError(t *testing.T) {
	client := NewOllamaClientWithModel(&fakeModel{err: errors.New("connection refused")}, "llama3.1")
	if _, err := client.Query(context.Background(), "explain", "mistral"); !errors.Is(err, services.ErrExternalIO) {
		t.Fatalf("expected ErrExternalIO, got %v", err)
	}
}
