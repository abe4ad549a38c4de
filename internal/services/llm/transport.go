package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes bounds how much of a completion body is read.
const maxResponseBytes = 8 << 20

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatChoice struct {
	Message chatBody `json:"message"`
	// Some providers answer in the streaming shape even when stream=false.
	Delta        chatBody `json:"delta"`
	Text         string   `json:"text"`
	FinishReason string   `json:"finish_reason"`
}

type chatBody struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

// text returns the first non-blank completion across choices and shapes.
func (r chatResponse) text() string {
	for _, choice := range r.Choices {
		for _, candidate := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if trimmed := strings.TrimSpace(candidate); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func (r chatResponse) emptyError(body []byte) *emptyContentError {
	e := &emptyContentError{Snippet: snippet(body)}
	for _, choice := range r.Choices {
		if e.FinishReason == "" {
			e.FinishReason = strings.TrimSpace(choice.FinishReason)
		}
		if e.Refusal == "" {
			e.Refusal = strings.TrimSpace(choice.Message.Refusal + choice.Delta.Refusal)
		}
	}
	return e
}

// StatusError is a non-2xx reply from the completion endpoint.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// retryable covers request timeouts, rate limits, and server errors.
func (e *StatusError) retryable() bool {
	return e.Code == http.StatusRequestTimeout ||
		e.Code == http.StatusTooManyRequests ||
		e.Code >= http.StatusInternalServerError
}

type emptyContentError struct {
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("empty completion (finish_reason=%q, refusal=%q): %s", e.FinishReason, e.Refusal, e.Snippet)
}

// complete runs one logical request, retrying per the client's policy.
func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	for attempt := 1; ; attempt++ {
		resp, body, err := c.post(ctx, req)
		if err == nil {
			if text := resp.text(); text != "" {
				return text, nil
			}
			err = resp.emptyError(body)
		}
		delay, again := c.retry.next(ctx, err, attempt)
		if !again {
			if attempt > 1 {
				return "", fmt.Errorf("gave up after %d attempts: %w", attempt, err)
			}
			return "", err
		}
		if waitErr := c.retry.wait(ctx, delay); waitErr != nil {
			return "", waitErr
		}
	}
}

func (c *Client) post(ctx context.Context, req chatRequest) (chatResponse, []byte, error) {
	var out chatResponse
	payload, err := json.Marshal(req)
	if err != nil {
		return out, nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return out, nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		httpReq.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return out, nil, fmt.Errorf("send request (timeout %s): %w", c.http.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return out, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return out, body, &StatusError{
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, body, fmt.Errorf("decode response: %w (body: %s)", err, snippet(body))
	}
	if out.Error != nil {
		return out, body, fmt.Errorf("api error: %s", strings.TrimSpace(out.Error.Message))
	}
	return out, body, nil
}

// snippet collapses whitespace and truncates body for error messages.
func snippet(body []byte) string {
	clean := strings.Join(strings.Fields(string(body)), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
