// Package textutil provides small text helpers shared by tasks and the CLI:
// lock-file tokens, case-insensitive extension matching, and token estimation
// for prompt payloads.
package textutil
