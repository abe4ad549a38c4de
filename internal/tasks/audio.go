package tasks

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"cogengine/internal/deps"
	"cogengine/internal/fileutil"
	"cogengine/internal/language"
	"cogengine/internal/logging"
	"cogengine/internal/services"
	"cogengine/internal/services/whisperx"
	"cogengine/internal/state"
	"cogengine/internal/task"
)

// AudioTranscribe transcribes audio files into a document list.
type AudioTranscribe struct {
	base
}

// Describe implements task.Describer.
func (t *AudioTranscribe) Describe() string {
	return "Transcribe audio files matching a glob with WhisperX"
}

// HealthCheck implements task.HealthChecker.
func (t *AudioTranscribe) HealthCheck(_ context.Context, params task.Params) task.Health {
	if _, err := params.RequireString("input_path"); err != nil {
		return task.Unhealthy(t.name, err.Error())
	}
	if missing := deps.MissingRequired(deps.CheckBinaries(deps.TranscriptionRequirements())); len(missing) > 0 {
		return task.Unhealthy(t.name, strings.Join(missing, "; "))
	}
	return task.Healthy(t.name)
}

// Execute implements task.Task. Files that fail to transcribe are logged and
// left out of the result.
func (t *AudioTranscribe) Execute(ctx context.Context, st *state.State, params task.Params) (*state.State, error) {
	logger := t.log(ctx)
	pattern, err := params.RequireString("input_path")
	if err != nil {
		return nil, err
	}
	outputKey, err := params.String("output_key", "transcribed_docs")
	if err != nil {
		return nil, err
	}
	model, err := params.String("model_size", t.cfg().WhisperX.Model)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(model) == "" {
		model = whisperx.DefaultModel
	}
	saveToDisk, err := params.Bool("save_to_disk", false)
	if err != nil {
		return nil, err
	}
	outputDir, err := params.String("output_dir", filepath.Join(t.cfg().Paths.OutputDir, "transcripts"))
	if err != nil {
		return nil, err
	}

	files, err := globFiles(t.name, pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logging.WarnWithContext(logger, "no audio files matched", "no_input", logging.String("pattern", pattern))
		st.Set(outputKey, []any{})
		return st, nil
	}

	workDir, err := os.MkdirTemp("", "cogengine-whisperx-")
	if err != nil {
		return nil, services.Wrap(services.ErrExternalIO, t.name, "work dir", "create transcription work dir", err)
	}
	defer os.RemoveAll(workDir)

	logger.Info("transcribing audio files",
		logging.Int("files", len(files)),
		logging.String("model", model),
		logging.String("language", language.DisplayName(t.cfg().WhisperX.Language)),
	)
	transcriber := t.deps.Transcriber()
	docs := make([]state.Document, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		fileLogger := logger.With(logging.String("file", name))
		if probe, err := t.deps.Probe(ctx, path); err != nil {
			fileLogger.Debug("audio probe unavailable", logging.Error(err))
		} else if probe.AudioStreamCount() == 0 {
			logging.WarnWithContext(fileLogger, "no audio stream found", "file_skipped")
			continue
		} else {
			fileLogger = fileLogger.With(logging.Float64("duration_seconds", probe.DurationSeconds()))
		}
		fileLogger.Info("transcribing")

		text, err := transcriber.Transcribe(ctx, path, workDir, model)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.ErrorWithContext(fileLogger, "transcription failed", "file_skipped", logging.Error(err))
			continue
		}
		text = strings.TrimSpace(text)
		docs = append(docs, state.Document{Filename: name + ".txt", Filepath: path, Content: text})

		if saveToDisk {
			target := filepath.Join(outputDir, name+".txt")
			if err := fileutil.WriteText(target, text); err != nil {
				return nil, services.Wrap(services.ErrExternalIO, t.name, "save transcript", target, err)
			}
			fileLogger.Debug("saved transcript", logging.String("path", target))
		}
	}

	st.Set(outputKey, state.Documents(docs))
	logger.Info("transcription finished", logging.String("output_key", outputKey), logging.Int("documents", len(docs)))
	return st, nil
}
