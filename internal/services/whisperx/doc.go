// Package whisperx runs WhisperX speech-to-text through uvx.
//
// One process is launched per audio file; the transcript is read back from
// the JSON WhisperX writes next to it. uvx and ffmpeg must be on PATH.
// Constructing a Service is cheap, so callers may build it eagerly and the
// heavy work only happens inside TranscribeFile.
package whisperx
