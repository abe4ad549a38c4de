// Package language normalizes the spoken-language hints passed to audio
// transcription. Config values may be ISO 639-1, ISO 639-2 (either variant),
// or an English word; WhisperX only accepts the two-letter form.
package language
