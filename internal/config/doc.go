// Package config loads, normalizes, and validates cogengine configuration.
//
// Configuration lives in a TOML file resolved from an explicit path, the user
// config directory (~/.config/cogengine/config.toml), or ./cogengine.toml.
// Missing files fall back to Default(). Environment variables override
// secrets and endpoints (OPENROUTER_API_KEY, COGENGINE_LLM_PROVIDER,
// OLLAMA_HOST, HF_TOKEN). All paths are expanded to absolute form before
// validation so downstream packages never deal with "~".
package config
