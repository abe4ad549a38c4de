package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Requirement is an external binary a task shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Optional binaries degrade a feature instead of blocking the task.
	Optional bool
}

// Status is the lookup result for one Requirement.
type Status struct {
	Requirement
	// Path is the resolved executable when Available.
	Path      string
	Available bool
	Detail    string
}

// TranscriptionRequirements lists the binaries WhisperX transcription needs:
// uvx to launch it and ffmpeg to decode audio. ffprobe is optional.
func TranscriptionRequirements() []Requirement {
	return []Requirement{
		{Name: "uvx", Command: "uvx", Description: "launches WhisperX"},
		{Name: "FFmpeg", Command: "ffmpeg", Description: "decodes audio for WhisperX"},
		{Name: "FFprobe", Command: "ffprobe", Description: "skips inputs without an audio stream", Optional: true},
	}
}

// CheckBinaries resolves each requirement against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	out := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		out[i] = lookup(req)
	}
	return out
}

// MissingRequired returns the details of unavailable non-optional binaries.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Detail)
		}
	}
	return missing
}

func lookup(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("%s (%s) not found on PATH", req.Command, req.Description)
		if req.Description == "" {
			status.Detail = fmt.Sprintf("%s not found on PATH", req.Command)
		}
		return status
	}
	// LookPath already checks the exec bit; a directory named like the
	// binary can still slip through on some platforms.
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		status.Detail = fmt.Sprintf("%s is not an executable file", path)
		return status
	}
	status.Path = path
	status.Available = true
	return status
}
