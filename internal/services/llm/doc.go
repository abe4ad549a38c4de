// Package llm provides the language-model backends used by the LLM tasks.
//
// Every backend satisfies Querier: one prompt in, one completion out, at
// temperature 0.
//
// # Providers
//
//   - mock: MockClient returns canned text keyed on prompt keywords. It never
//     fails and costs nothing, so it is the default provider.
//   - openrouter: Client talks to an OpenRouter-compatible chat completion
//     endpoint over HTTP.
//   - ollama: OllamaClient drives a local model server through langchaingo.
//
// # Entry Points
//
// NewQuerier: build the backend for a provider name from Config.
// ResolveModel: map the "default" model alias to the provider's model.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The hosted client retries on HTTP 408/429/5xx errors, empty completions and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Context cancellation aborts retries immediately.
// Retries happen inside a single Query; callers see one result.
package llm
