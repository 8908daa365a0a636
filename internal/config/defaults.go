package config

import "time"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Transcribe: TranscribeConfig{
			BaseURL:         "https://api.assemblyai.com/v2",
			PollInterval:    3 * time.Second,
			PollDeadline:    10 * time.Minute,
			MaxPollAttempts: 200,
		},
		Translate: TranslateConfig{
			PrimaryURL:  "https://translate.googleapis.com/translate_a/single",
			FallbackURL: "https://translate.argosopentech.com/translate",
			SourceLang:  "en",
			TargetLang:  "hi",
		},
		Speech: SpeechConfig{
			Lang:   "hi",
			Rate:   0.8,
			Volume: 1.0,
			Binary: "espeak-ng",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Export: ExportConfig{Dir: "."},
		Debug:  DebugConfig{},
	}
}
