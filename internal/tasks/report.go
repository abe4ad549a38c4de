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
	"cogengine/internal/textutil"
)

// ReportWriter stitches named State values into one markdown file.
type ReportWriter struct {
	base
}

// Describe implements task.Describer.
func (t *ReportWriter) Describe() string {
	return "Write a markdown report from titled State sections"
}

// Execute implements task.Task. Missing keys render a placeholder instead of
// failing the step.
func (t *ReportWriter) Execute(ctx context.Context, st *state.State, params task.Params) (*state.State, error) {
	logger := t.log(ctx)
	filename, err := params.RequireString("filename")
	if err != nil {
		return nil, err
	}
	sections, err := params.Maps("sections")
	if err != nil {
		return nil, err
	}

	var parts []string
	missing := 0
	for _, sec := range sections {
		entry := task.Params(sec)
		heading, err := entry.String("title", "")
		if err != nil {
			return nil, err
		}
		key, err := entry.String("content_key", "")
		if err != nil {
			return nil, err
		}
		if heading != "" {
			parts = append(parts, "## "+heading)
		}
		value, ok := st.Lookup(key)
		if ok {
			parts = append(parts, value.String())
		} else {
			missing++
			parts = append(parts, fmt.Sprintf("_[Missing content for key: %s]_", key))
		}
		parts = append(parts, "\n---\n")
	}
	report := strings.Join(parts, "\n\n")

	if err := fileutil.WriteText(filename, report); err != nil {
		return nil, services.Wrap(services.ErrExternalIO, t.name, "write report", filename, err)
	}
	logger.Info("report saved",
		logging.String("path", filename),
		logging.Int("sections", len(sections)),
		logging.Int("missing_sections", missing),
		logging.Int("estimated_tokens", textutil.EstimateTokens(report)),
	)
	return st, nil
}
