package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cogengine/internal/services"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 120 * time.Second
)

// Config holds the settings for an OpenRouter-compatible chat completion
// endpoint. BaseURL is the full completions URL.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

func (c Config) normalized() Config {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Model = strings.TrimSpace(c.Model)
	c.Referer = strings.TrimSpace(c.Referer)
	c.Title = strings.TrimSpace(c.Title)
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	return c
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return defaultHTTPTimeout
}

// Client is the hosted Querier.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts caps the attempts spent on one query (default 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first backoff delay and the ceiling.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.base = baseDelay
		c.retry.max = maxDelay
	}
}

// WithSleeper replaces time-based waiting between attempts; tests use it to
// observe delays without sleeping.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleep = sleeper }
}

// NewClient builds a hosted client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg = cfg.normalized()
	client := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.timeout()},
		retry: defaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// DefaultModel returns the model used when a query names none.
func (c *Client) DefaultModel() string {
	return c.cfg.Model
}

// Query sends prompt as one user message at temperature 0. An empty model
// uses the configured one. Transport failures are retried inside the call.
func (c *Client) Query(ctx context.Context, prompt, model string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "query", "prompt is empty", nil)
	}
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "llm", "query", "api key required", nil)
	}
	if strings.TrimSpace(model) == "" {
		model = c.cfg.Model
	}
	text, err := c.complete(ctx, chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalIO, "llm", "query", "model "+model, err)
	}
	return text, nil
}

// HealthCheck sends a throwaway prompt to confirm the key and model are
// accepted. Any non-empty reply counts.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("llm health: api key required")
	}
	_, err := c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "Reply with the single word OK."},
			{Role: "user", Content: "ping"},
		},
	})
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	return nil
}
