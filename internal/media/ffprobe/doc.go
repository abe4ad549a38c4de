// Package ffprobe inspects audio inputs before they are handed to WhisperX.
//
// Inspect runs the ffprobe binary and decodes its JSON report into Result.
// The audio task uses AudioStreamCount to skip files that carry no audio and
// DurationSeconds to log how much material a transcription covers.
package ffprobe
