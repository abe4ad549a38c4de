package tasks

import (
	"context"
	"fmt"
	"strings"

	"cogengine/internal/fileutil"
	"cogengine/internal/logging"
	"cogengine/internal/services"
	"cogengine/internal/state"
	"cogengine/internal/task"
)

const defaultSeparator = "\n\n---\n\n"

// TextAggregator joins a list into one string.
type TextAggregator struct {
	base
}

// Describe implements task.Describer.
func (t *TextAggregator) Describe() string {
	return "Join a list of strings or documents with a separator"
}

// Execute implements task.Task.
func (t *TextAggregator) Execute(ctx context.Context, st *state.State, params task.Params) (*state.State, error) {
	logger := t.log(ctx)
	inputKey, err := params.RequireString("input_key")
	if err != nil {
		return nil, err
	}
	outputKey, err := params.RequireString("output_key")
	if err != nil {
		return nil, err
	}
	separator, err := params.String("separator", defaultSeparator)
	if err != nil {
		return nil, err
	}
	savePath, err := params.String("save_to_file", "")
	if err != nil {
		return nil, err
	}

	raw, err := st.Require(inputKey)
	if err != nil {
		return nil, err
	}
	value := state.Of(raw)
	items, err := value.AsList()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, t.name, "read input",
			fmt.Sprintf("input data at %q must be a list, got %s", inputKey, value.Kind()), nil)
	}

	logger.Info("aggregating items", logging.Int("items", len(items)))
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = itemText(item)
	}
	combined := strings.Join(parts, separator)
	st.Set(outputKey, combined)

	if strings.TrimSpace(savePath) != "" {
		if err := fileutil.WriteText(savePath, combined); err != nil {
			return nil, services.Wrap(services.ErrExternalIO, t.name, "save", savePath, err)
		}
		logger.Info("saved combined text", logging.String("path", savePath))
	}
	return st, nil
}

// itemText renders one list element. Document records contribute their
// content; anything else is stringified.
func itemText(item any) string {
	if m, ok := item.(map[string]any); ok {
		if _, has := m["content"]; has {
			if doc, err := state.DocumentFrom(m); err == nil {
				return doc.Content
			}
		}
	}
	return state.Of(item).String()
}
