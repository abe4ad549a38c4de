package whisperx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"cogengine/internal/language"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service transcribes audio files by running WhisperX through uvx.
type Service struct {
	cfg    Config
	runner CommandRunner
}

// NewService normalizes cfg and returns a service. Nothing is launched until
// TranscribeFile.
func NewService(cfg Config) *Service {
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg.VADMethod = strings.ToLower(strings.TrimSpace(cfg.VADMethod))
	if cfg.VADMethod == "" {
		cfg.VADMethod = VADMethodSilero
	}
	cfg.Language = language.ToISO2(cfg.Language)
	return &Service{cfg: cfg, runner: execRunner}
}

// WithCommandRunner replaces process execution; tests use it to fake WhisperX.
func (s *Service) WithCommandRunner(runner CommandRunner) *Service {
	if runner != nil {
		s.runner = runner
	}
	return s
}

// WithModel returns a copy using model. Empty keeps the current one.
func (s *Service) WithModel(model string) *Service {
	clone := *s
	if model = strings.TrimSpace(model); model != "" {
		clone.cfg.Model = model
	}
	return &clone
}

// Model reports the model TranscribeFile will request.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Result is one finished transcription.
type Result struct {
	Text     string
	JSONPath string
	// Language is the code WhisperX reports, detected or forced.
	Language string
	Segments []Segment
}

// TranscribeFile transcribes source. WhisperX writes <base>.json into
// outputDir, which defaults to the source directory.
func (s *Service) TranscribeFile(ctx context.Context, source, outputDir string) (Result, error) {
	if strings.TrimSpace(source) == "" {
		return Result{}, fmt.Errorf("transcribe: source path required")
	}
	if _, err := os.Stat(source); err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("transcribe: output dir: %w", err)
	}

	if err := s.runner(ctx, UVXCommand, s.buildArgs(source, outputDir)...); err != nil {
		return Result{}, fmt.Errorf("whisperx: %w", err)
	}

	jsonPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))+".json")
	transcript, err := LoadTranscript(jsonPath)
	if err != nil {
		return Result{}, fmt.Errorf("whisperx: read transcript: %w", err)
	}
	return Result{
		Text:     transcript.Text(),
		JSONPath: jsonPath,
		Language: transcript.Language,
		Segments: transcript.Segments,
	}, nil
}

func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 40)
	if s.cfg.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	args = append(args, "whisperx", source, "--model", s.cfg.Model, "--output_dir", outputDir)
	args = append(args, decodeFlags...)

	args = append(args, "--vad_method", s.cfg.VADMethod)
	if s.cfg.VADMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}
	if s.cfg.CUDAEnabled {
		return append(args, "--device", CUDADevice)
	}
	return append(args, "--device", CPUDevice, "--compute_type", "float32")
}

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	// torch 2.6 defaults torch.load to weights_only, which pyannote checkpoints fail.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
