package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"cogengine/internal/logging"
	"cogengine/internal/services"
	"cogengine/internal/state"
	"cogengine/internal/task"
)

// DirectoryLoader reads every file matching input_path into a document list.
type DirectoryLoader struct {
	base
}

// Describe implements task.Describer.
func (t *DirectoryLoader) Describe() string {
	return "Load text files matching a glob into a document list"
}

// Execute implements task.Task.
func (t *DirectoryLoader) Execute(ctx context.Context, st *state.State, params task.Params) (*state.State, error) {
	logger := t.log(ctx)
	pattern, err := params.RequireString("input_path")
	if err != nil {
		return nil, err
	}
	outputKey, err := params.String("output_key", "raw_files")
	if err != nil {
		return nil, err
	}

	files, err := globFiles(t.name, pattern)
	if err != nil {
		return nil, err
	}
	logger.Info("matched input files", logging.String("pattern", pattern), logging.Int("files", len(files)))

	docs := make([]state.Document, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := readDocument(path)
		if err != nil {
			logging.WarnWithContext(logger, "skipping unreadable file", "file_skipped",
				logging.String("file", path),
				logging.Error(err),
			)
			continue
		}
		docs = append(docs, doc)
	}

	st.Set(outputKey, state.Documents(docs))
	logger.Info("loaded documents", logging.String("output_key", outputKey), logging.Int("documents", len(docs)))
	return st, nil
}

// HealthCheck implements task.HealthChecker.
func (t *DirectoryLoader) HealthCheck(_ context.Context, params task.Params) task.Health {
	pattern, err := params.RequireString("input_path")
	if err != nil {
		return task.Unhealthy(t.name, err.Error())
	}
	files, err := globFiles(t.name, pattern)
	if err != nil {
		return task.Unhealthy(t.name, err.Error())
	}
	if len(files) == 0 {
		return task.Health{Name: t.name, Ready: true, Detail: fmt.Sprintf("no files match %s yet", pattern)}
	}
	return task.Health{Name: t.name, Ready: true, Detail: fmt.Sprintf("%d files match", len(files))}
}

func readDocument(path string) (state.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return state.Document{}, services.Wrap(services.ErrExternalIO, "loader", "read", path, err)
	}
	if !utf8.Valid(data) {
		return state.Document{}, services.Wrap(services.ErrParse, "loader", "decode", fmt.Sprintf("%s is not valid UTF-8", path), nil)
	}
	return state.Document{
		Filename: filepath.Base(path),
		Filepath: path,
		Content:  string(data),
	}, nil
}
