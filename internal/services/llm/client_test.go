package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cogengine/internal/services"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": content,
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, `{"ok":true}`))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestClientQuerySendsSingleUserMessage(t *testing.T) {
	var got chatRequest
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		completionHandler(t, "  a careful summary  ")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:  "secret",
		BaseURL: server.URL,
		Model:   "configured-model",
		Referer: "https://example.test",
		Title:   "Cognitive Engine",
	})
	out, err := client.Query(context.Background(), "Summarize this", "")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if out != "a careful summary" {
		t.Fatalf("unexpected completion %q", out)
	}
	if got.Model != "configured-model" || got.Temperature != 0 {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "Summarize this" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
	if headers.Get("Authorization") != "Bearer secret" || headers.Get("X-Title") != "Cognitive Engine" {
		t.Fatalf("unexpected headers %v", headers)
	}
}

func TestClientQueryExplicitModel(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		completionHandler(t, "ok")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "configured"})
	if _, err := client.Query(context.Background(), "hello", "other/model"); err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if got.Model != "other/model" {
		t.Fatalf("expected explicit model, got %q", got.Model)
	}
}

func TestClientQueryFailureIsExternalIO(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"}, WithSleeper(func(time.Duration) {}))
	_, err := client.Query(context.Background(), "hello", "")
	if !errors.Is(err, services.ErrExternalIO) {
		t.Fatalf("expected ErrExternalIO, got %v", err)
	}
	if !strings.Contains(err.Error(), "http 400") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestClientQueryRequiresKey(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	if _, err := client.Query(context.Background(), "hello", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"finish_reason":"length","message":{"content":"","refusal":"nope"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"}, WithRetryMaxAttempts(1))
	_, err := client.Query(context.Background(), "hello", "")
	var emptyErr *emptyContentError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected emptyContentError, got %v", err)
	}
	if emptyErr.FinishReason != "length" || emptyErr.Refusal != "nope" || !strings.Contains(emptyErr.Snippet, "choices") {
		t.Fatalf("unexpected diagnostics %+v", emptyErr)
	}
}

func TestClientDeltaContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"delta":{"content":"streamed text"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	out, err := client.Query(context.Background(), "hello", "")
	if err != nil || out != "streamed text" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		completionHandler(t, "second time lucky")(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	out, err := client.Query(context.Background(), "test prompt", "")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if out != "second time lucky" {
		t.Fatalf("unexpected completion %q", out)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = "finally"
		}
		completionHandler(t, content)(w, r)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	out, err := client.Query(context.Background(), "test prompt", "")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if out != "finally" || calls != 3 {
		t.Fatalf("unexpected result %q after %d calls", out, calls)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := client.retry.backoff(i + 1); got != expected {
			t.Fatalf("attempt %d: expected %v, got %v", i+1, expected, got)
		}
	}
}

func TestClientGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "k", BaseURL: server.URL, Model: "m"},
		WithRetryBackoff(0, 0),
		WithRetryMaxAttempts(3),
	)
	_, err := client.Query(context.Background(), "hello", "")
	var status *StatusError
	if !errors.As(err, &status) || status.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if calls != 3 || !strings.Contains(err.Error(), "gave up after 3 attempts") {
		t.Fatalf("expected 3 attempts, got %d (%v)", calls, err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("7"); !ok || d != 7*time.Second {
		t.Fatalf("unexpected seconds parse %v %v", d, ok)
	}
	if _, ok := parseRetryAfter("soon"); ok {
		t.Fatal("expected garbage rejected")
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if d, ok := parseRetryAfter(future); !ok || d <= 0 {
		t.Fatalf("unexpected date parse %v %v", d, ok)
	}
}
