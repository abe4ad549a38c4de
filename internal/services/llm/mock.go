package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MockClient returns deterministic canned responses chosen by keywords in the
// prompt. It is safe for concurrent use.
type MockClient struct{}

// NewMockClient returns a mock backend.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Query never fails. An empty model is reported as "default".
func (m *MockClient) Query(_ context.Context, prompt, model string) (string, error) {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "summary"), strings.Contains(lower, "summarize"):
		return fmt.Sprintf("[[Mock Summary using %s]]: The text discusses key concepts X, Y, and Z. It argues that...", model), nil
	case strings.Contains(lower, "action"), strings.Contains(lower, "strategy"):
		return fmt.Sprintf("[[Mock Action Plan using %s]]:\n1. Do this.\n2. Do that.\n3. Profit.", model), nil
	default:
		return fmt.Sprintf("[[Mock Response using %s]]: Processed %d characters.", model, utf8.RuneCountInString(prompt)), nil
	}
}
