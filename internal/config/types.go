// Package config resolves, parses, validates, and defaults vaani configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by vaani.
type Config struct {
	Transcribe TranscribeConfig
	Translate  TranslateConfig
	Speech     SpeechConfig
	Audio      AudioConfig
	Export     ExportConfig
	Debug      DebugConfig
}

// TranscribeConfig controls the remote transcription job client.
type TranscribeConfig struct {
	BaseURL         string
	APIKey          string
	PollInterval    time.Duration
	PollDeadline    time.Duration
	MaxPollAttempts int
}

// TranslateConfig controls the primary and fallback translation endpoints.
type TranslateConfig struct {
	PrimaryURL  string
	FallbackURL string
	SourceLang  string
	TargetLang  string
}

// SpeechConfig controls synthesis voice, pacing, and engine binary.
type SpeechConfig struct {
	Voice  string
	Lang   string
	Rate   float64
	Volume float64
	Binary string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// ExportConfig controls where bilingual transcript artifacts are written.
type ExportConfig struct {
	Dir string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
