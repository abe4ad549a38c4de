package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cogengine/internal/config"
	"cogengine/internal/services"
	"cogengine/internal/task"
	"cogengine/internal/workflow"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the environment checks for the given config. Backend
// checks only run for the configured default provider.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCreatableDirectory("Output directory", cfg.Paths.OutputDir),
		CheckCreatableDirectory("State directory", cfg.Paths.StateDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckCreatableDirectory("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, checkProviders(ctx, cfg, []string{cfg.LLM.Provider})...)
	return results
}

// ForWorkflow checks every step of def: the task type must be registered and,
// when the task implements task.HealthChecker, its prerequisites must be met.
// Each LLM backend selected by the workflow is checked once.
func ForWorkflow(ctx context.Context, cfg *config.Config, def *workflow.Definition, reg *task.Registry) []Result {
	if cfg == nil || def == nil || reg == nil {
		return nil
	}

	results := []Result{CheckCreatableDirectory("Output directory", cfg.Paths.OutputDir)}
	for _, step := range def.Steps {
		results = append(results, checkStep(ctx, step, reg, len(def.Steps)))
	}
	results = append(results, checkProviders(ctx, cfg, StepProviders(cfg, def))...)
	return results
}

func checkStep(ctx context.Context, step workflow.Step, reg *task.Registry, total int) Result {
	name := step.Label(total)
	t, err := reg.Resolve(step.Type)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checker, ok := t.(task.HealthChecker)
	if !ok {
		return Result{Name: name, Passed: true, Detail: "no prerequisites"}
	}
	health := checker.HealthCheck(ctx, step.Config)
	detail := health.Detail
	if detail == "" && health.Ready {
		detail = "ready"
	}
	return Result{Name: name, Passed: health.Ready, Detail: detail}
}

// StepProviders lists the distinct LLM providers the workflow's model-calling
// steps select, in first-use order. A step calls a model when its config names
// a prompt_file; an unset or "default" provider resolves to the configured one.
func StepProviders(cfg *config.Config, def *workflow.Definition) []string {
	var providers []string
	seen := map[string]bool{}
	for _, step := range def.Steps {
		if !step.Config.Has("prompt_file") {
			continue
		}
		provider, err := step.Config.String("provider", "")
		if err != nil {
			continue
		}
		provider = strings.ToLower(strings.TrimSpace(provider))
		if provider == "" || provider == "default" {
			provider = cfg.LLM.Provider
		}
		if !seen[provider] {
			seen[provider] = true
			providers = append(providers, provider)
		}
	}
	return providers
}

func checkProviders(ctx context.Context, cfg *config.Config, providers []string) []Result {
	var results []Result
	for _, provider := range providers {
		switch provider {
		case config.ProviderOpenRouter:
			results = append(results, CheckLLM(ctx, "Hosted LLM", cfg.GetLLM()))
		case config.ProviderOllama:
			results = append(results, CheckOllama(ctx, cfg.LocalLLM()))
		case config.ProviderMock:
			results = append(results, Result{Name: "Mock LLM", Passed: true, Detail: "canned responses"})
		default:
			results = append(results, Result{Name: "LLM provider", Detail: fmt.Sprintf("unknown provider %q", provider)})
		}
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err summarizes failed checks as a configuration error, or nil when every
// check passed.
func Err(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check",
		fmt.Sprintf("%d of %d checks failed", len(failed), len(results)),
		errors.New(strings.Join(parts, "; ")))
}
