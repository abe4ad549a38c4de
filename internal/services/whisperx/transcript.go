package whisperx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Segment is one timed span of a WhisperX transcript.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the JSON document WhisperX writes per input file.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// LoadTranscript reads a WhisperX JSON file.
func LoadTranscript(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, err
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return Transcript{}, fmt.Errorf("parse whisperx json: %w", err)
	}
	return t, nil
}

// Text joins the non-blank segments with single spaces.
func (t Transcript) Text() string {
	var b strings.Builder
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	return b.String()
}

// Duration is the end time of the last segment, in seconds.
func (t Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}
