package tasks

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"cogengine/internal/config"
	"cogengine/internal/logging"
	"cogengine/internal/media/ffprobe"
	"cogengine/internal/services/llm"
	"cogengine/internal/services/whisperx"
	"cogengine/internal/task"
)

// Task names as they appear in workflow files.
const (
	NameDirectoryLoader  = "DirectoryLoader"
	NameTextFileSplitter = "TextFileSplitterTask"
	NameLLMTransform     = "LLMTransformTask"
	NameBatchLLM         = "BatchLLMTask"
	NameTextAggregator   = "TextAggregator"
	NameReportWriter     = "ReportWriterTask"
	NameAudioTranscribe  = "AudioTranscribeTask"
	NameContextSave      = "ContextSaveTask"
	NameContextLoad      = "ContextLoadTask"
	NameCodebaseSnapshot = "CodebaseSnapshotTask"
)

// QuerierFactory builds the LLM backend for a provider name ("" = configured default).
type QuerierFactory func(provider string) (llm.Querier, error)

// Transcriber converts one audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, source, outputDir, model string) (string, error)
}

// Deps carries the collaborators shared by the catalog. Zero fields get
// defaults derived from Config.
type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	Queriers    QuerierFactory
	Transcriber func() Transcriber
	Probe       ProbeFunc
	Now         func() time.Time
}

// ProbeFunc inspects an audio input before transcription.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// errNoFFprobe marks a missing ffprobe binary; the audio task then
// transcribes without inspecting inputs.
var errNoFFprobe = errors.New("ffprobe not found on PATH")

func probeWithFFprobe(ctx context.Context, path string) (ffprobe.Result, error) {
	binary, err := exec.LookPath(ffprobe.Binary)
	if err != nil {
		return ffprobe.Result{}, errNoFFprobe
	}
	return ffprobe.Inspect(ctx, binary, path)
}

// Register adds the built-in catalog to reg.
func Register(reg *task.Registry, deps Deps) error {
	deps = deps.withDefaults()
	factories := []struct {
		name    string
		factory task.Factory
	}{
		{NameDirectoryLoader, func() task.Task { return &DirectoryLoader{base: deps.base(NameDirectoryLoader)} }},
		{NameTextFileSplitter, func() task.Task { return &TextFileSplitter{base: deps.base(NameTextFileSplitter)} }},
		{NameLLMTransform, func() task.Task { return &LLMTransform{base: deps.base(NameLLMTransform)} }},
		{NameBatchLLM, func() task.Task { return &BatchLLM{base: deps.base(NameBatchLLM)} }},
		{NameTextAggregator, func() task.Task { return &TextAggregator{base: deps.base(NameTextAggregator)} }},
		{NameReportWriter, func() task.Task { return &ReportWriter{base: deps.base(NameReportWriter)} }},
		{NameAudioTranscribe, func() task.Task { return &AudioTranscribe{base: deps.base(NameAudioTranscribe)} }},
		{NameContextSave, func() task.Task { return &ContextSave{base: deps.base(NameContextSave)} }},
		{NameContextLoad, func() task.Task { return &ContextLoad{base: deps.base(NameContextLoad)} }},
		{NameCodebaseSnapshot, func() task.Task { return &CodebaseSnapshot{base: deps.base(NameCodebaseSnapshot)} }},
	}
	for _, entry := range factories {
		if err := reg.Register(entry.name, entry.factory); err != nil {
			return err
		}
	}
	return nil
}

func (d Deps) withDefaults() Deps {
	if d.Config == nil {
		cfg := config.Default()
		d.Config = &cfg
	}
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Queriers == nil {
		cfg := d.Config
		d.Queriers = func(provider string) (llm.Querier, error) {
			return llm.NewQuerier(provider, cfg)
		}
	}
	if d.Transcriber == nil {
		d.Transcriber = lazyWhisperX(d.Config)
	}
	if d.Probe == nil {
		d.Probe = probeWithFFprobe
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// lazyWhisperX defers building the transcription backend until an audio step
// actually runs.
func lazyWhisperX(cfg *config.Config) func() Transcriber {
	return sync.OnceValue(func() Transcriber {
		return whisperxTranscriber{svc: whisperx.NewService(whisperx.Config{
			Model:       cfg.WhisperX.Model,
			CUDAEnabled: cfg.WhisperX.CUDAEnabled,
			VADMethod:   cfg.WhisperX.VADMethod,
			HFToken:     cfg.WhisperX.HFToken,
			Language:    cfg.WhisperX.Language,
		})}
	})
}

type whisperxTranscriber struct {
	svc *whisperx.Service
}

func (w whisperxTranscriber) Transcribe(ctx context.Context, source, outputDir, model string) (string, error) {
	result, err := w.svc.WithModel(model).TranscribeFile(ctx, source, outputDir)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// base holds what every catalog task shares. The engine replaces logger with
// a step-scoped one through SetLogger.
type base struct {
	name   string
	deps   Deps
	logger *slog.Logger
}

func (d Deps) base(name string) base {
	return base{name: name, deps: d, logger: logging.NewComponentLogger(d.Logger, name)}
}

// SetLogger installs the step-scoped logger.
func (b *base) SetLogger(logger *slog.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

func (b *base) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, b.logger)
}

func (b *base) cfg() *config.Config {
	return b.deps.Config
}
