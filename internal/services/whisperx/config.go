package whisperx

// Config holds the transcription settings taken from the [whisperx] section.
type Config struct {
	// Model is the WhisperX model name, e.g. "base" or "large-v3".
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote"; pyannote needs HFToken.
	VADMethod string
	HFToken   string
	// Language is a language code or English name, normalized to ISO 639-1.
	// Empty lets WhisperX detect it.
	Language string
}

const (
	DefaultModel      = "base"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"

	UVXCommand = "uvx"

	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"
	CUDADevice   = "cuda"
	CPUDevice    = "cpu"
)

// decodeFlags are passed on every run. Sentence-level segments keep the
// joined transcript readable for the LLM steps that follow.
var decodeFlags = []string{
	"--batch_size", "4",
	"--output_format", "json",
	"--segment_resolution", "sentence",
	"--chunk_size", "15",
	"--vad_onset", "0.08",
	"--vad_offset", "0.07",
	"--beam_size", "5",
	"--best_of", "5",
	"--temperature", "0.0",
}
