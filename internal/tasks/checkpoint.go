package tasks

import (
	"context"

	"cogengine/internal/logging"
	"cogengine/internal/state"
	"cogengine/internal/task"
)

// ContextSave writes the live State to a JSON file.
type ContextSave struct {
	base
}

// Describe implements task.Describer.
func (t *ContextSave) Describe() string {
	return "Persist the workflow state to a JSON file"
}

// Execute implements task.Task.
func (t *ContextSave) Execute(ctx context.Context, st *state.State, params task.Params) (*state.State, error) {
	path, err := params.RequireString("path")
	if err != nil {
		return nil, err
	}
	if err := st.Persist(path); err != nil {
		return nil, err
	}
	t.log(ctx).Info("state saved", logging.String("path", path), logging.Int("keys", st.Len()))
	return st, nil
}

// ContextLoad merges a saved JSON state into the live State. A missing file
// is not an error.
type ContextLoad struct {
	base
}

// Describe implements task.Describer.
func (t *ContextLoad) Describe() string {
	return "Merge a saved JSON state file into the workflow state"
}

// Execute implements task.Task.
func (t *ContextLoad) Execute(ctx context.Context, st *state.State, params task.Params) (*state.State, error) {
	logger := t.log(ctx)
	path, err := params.RequireString("path")
	if err != nil {
		return nil, err
	}
	restored, err := st.Restore(path)
	if err != nil {
		return nil, err
	}
	if !restored {
		logging.WarnWithContext(logger, "no saved state found", "state_missing", logging.String("path", path))
		return st, nil
	}
	logger.Info("state restored", logging.String("path", path), logging.Int("keys", st.Len()))
	return st, nil
}
