package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"cogengine/internal/fileutil"
	"cogengine/internal/logging"
	"cogengine/internal/services"
	"cogengine/internal/services/llm"
	"cogengine/internal/state"
	"cogengine/internal/task"
	"cogengine/internal/textutil"
)

// llmParams are the step settings shared by both LLM tasks.
type llmParams struct {
	inputKey   string
	outputKey  string
	promptFile string
	provider   string
	model      string
}

func readLLMParams(params task.Params) (llmParams, error) {
	var p llmParams
	var err error
	if p.inputKey, err = params.RequireString("input_key"); err != nil {
		return p, err
	}
	if p.outputKey, err = params.RequireString("output_key"); err != nil {
		return p, err
	}
	if p.promptFile, err = params.RequireString("prompt_file"); err != nil {
		return p, err
	}
	if p.provider, err = params.String("provider", ""); err != nil {
		return p, err
	}
	if p.model, err = params.String("model", llm.DefaultModel); err != nil {
		return p, err
	}
	return p, nil
}

func (b *base) querier(p llmParams) (llm.Querier, string, error) {
	q, err := b.deps.Queriers(p.provider)
	if err != nil {
		return nil, "", err
	}
	return q, llm.ResolveModel(p.provider, p.model, b.cfg()), nil
}

func (b *base) llmHealth(params task.Params) task.Health {
	p, err := readLLMParams(params)
	if err != nil {
		return task.Unhealthy(b.name, err.Error())
	}
	if _, err := loadPrompt(b.name, p.promptFile); err != nil {
		return task.Unhealthy(b.name, err.Error())
	}
	_, model, err := b.querier(p)
	if err != nil {
		return task.Unhealthy(b.name, err.Error())
	}
	return task.Health{Name: b.name, Ready: true, Detail: "model " + model}
}

// LLMTransform applies a prompt to one string value.
type LLMTransform struct {
	base
}

// Describe implements task.Describer.
func (t *LLMTransform) Describe() string {
	return "Apply a prompt template to one string with an LLM"
}

// HealthCheck implements task.HealthChecker.
func (t *LLMTransform) HealthCheck(_ context.Context, params task.Params) task.Health {
	return t.llmHealth(params)
}

// Execute implements task.Task. A model failure fails the step.
func (t *LLMTransform) Execute(ctx context.Context, st *state.State, params task.Params) (*state.State, error) {
	logger := t.log(ctx)
	p, err := readLLMParams(params)
	if err != nil {
		return nil, err
	}
	input, err := st.RequireString(p.inputKey)
	if err != nil {
		return nil, err
	}
	template, err := loadPrompt(t.name, p.promptFile)
	if err != nil {
		return nil, err
	}
	querier, model, err := t.querier(p)
	if err != nil {
		return nil, err
	}

	logger.Info("generating transformation",
		logging.String("input_key", p.inputKey),
		logging.String("model", model),
		logging.Int("prompt_tokens", textutil.EstimateTokens(input)),
	)
	result, err := querier.Query(ctx, renderPrompt(template, input), model)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalIO, t.name, "query", fmt.Sprintf("model %s failed", model), err)
	}

	meta := metadata{date: t.deps.Now(), model: model, prompt: p.promptFile}
	st.Set(p.outputKey, meta.render()+"## LLM Processed Content\n\n"+result)
	logger.Info("transformation stored", logging.String("output_key", p.outputKey))
	return st, nil
}

// BatchLLM applies a prompt to every document in a list.
type BatchLLM struct {
	base
}

// Describe implements task.Describer.
func (t *BatchLLM) Describe() string {
	return "Apply a prompt template to each document in a list with an LLM"
}

// HealthCheck implements task.HealthChecker.
func (t *BatchLLM) HealthCheck(_ context.Context, params task.Params) task.Health {
	return t.llmHealth(params)
}

// Execute implements task.Task. A model failure for one item is replaced by
// an inline error marker and the batch continues.
func (t *BatchLLM) Execute(ctx context.Context, st *state.State, params task.Params) (*state.State, error) {
	logger := t.log(ctx)
	p, err := readLLMParams(params)
	if err != nil {
		return nil, err
	}
	saveIntermediate, err := params.Bool("save_intermediate_files", false)
	if err != nil {
		return nil, err
	}
	outputDir, err := params.String("output_dir", t.cfg().Paths.OutputDir)
	if err != nil {
		return nil, err
	}
	suffix, err := params.String("filename_suffix", "_processed")
	if err != nil {
		return nil, err
	}
	includeOriginal, err := params.Bool("include_original_content", true)
	if err != nil {
		return nil, err
	}

	docs, err := st.RequirePartialDocuments(p.inputKey)
	if err != nil {
		return nil, err
	}
	template, err := loadPrompt(t.name, p.promptFile)
	if err != nil {
		return nil, err
	}
	querier, model, err := t.querier(p)
	if err != nil {
		return nil, err
	}

	logger.Info("batch processing started", logging.Int("items", len(docs)), logging.String("model", model))
	now := t.deps.Now()
	results := make([]any, 0, len(docs))
	failures := 0
	for idx, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := doc.NameOr(idx)
		itemLogger := logger.With(logging.String("item", name))
		itemLogger.Info("processing item")

		output, err := querier.Query(ctx, renderPrompt(template, doc.Content), model)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			logging.ErrorWithContext(itemLogger, "llm failure for item", "item_failed", logging.Error(err))
			output = fmt.Sprintf("[Error processing %s]", name)
		}

		var b strings.Builder
		b.WriteString(metadata{date: now, source: name, model: model, prompt: p.promptFile}.render())
		b.WriteString("## LLM Processed Content\n\n")
		b.WriteString(output)
		if includeOriginal {
			b.WriteString("\n\n---\n\n## Original Content\n\n")
			b.WriteString(doc.Content)
		}
		processed := b.String()

		if saveIntermediate {
			path := filepath.Join(outputDir, textutil.Stem(name)+suffix+".md")
			if err := fileutil.WriteText(path, processed); err != nil {
				return nil, services.Wrap(services.ErrExternalIO, t.name, "save intermediate", path, err)
			}
			itemLogger.Info("saved intermediate file", logging.String("path", path))
		}
		results = append(results, processed)
	}

	st.Set(p.outputKey, results)
	logger.Info("batch processing finished",
		logging.String("output_key", p.outputKey),
		logging.Int("items", len(results)),
		logging.Int("failures", failures),
	)
	return st, nil
}
