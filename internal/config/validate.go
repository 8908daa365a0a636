package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks hard constraints and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	var warnings []Warning

	for name, raw := range map[string]string{
		"transcribe.base_url":    cfg.Transcribe.BaseURL,
		"translate.primary_url":  cfg.Translate.PrimaryURL,
		"translate.fallback_url": cfg.Translate.FallbackURL,
	} {
		if err := validateURL(name, raw); err != nil {
			return nil, err
		}
	}

	if cfg.Transcribe.PollInterval <= 0 {
		return nil, fmt.Errorf("transcribe.poll_interval_seconds must be positive")
	}
	if cfg.Transcribe.PollDeadline <= 0 {
		return nil, fmt.Errorf("transcribe.poll_deadline_seconds must be positive")
	}
	if cfg.Transcribe.MaxPollAttempts <= 0 {
		return nil, fmt.Errorf("transcribe.max_poll_attempts must be positive")
	}

	if cfg.Speech.Rate < 0.5 || cfg.Speech.Rate > 2.0 {
		return nil, fmt.Errorf("speech.rate must be between 0.5 and 2.0, got %g", cfg.Speech.Rate)
	}
	if cfg.Speech.Volume < 0 || cfg.Speech.Volume > 1 {
		return nil, fmt.Errorf("speech.volume must be between 0.0 and 1.0, got %g", cfg.Speech.Volume)
	}
	if strings.TrimSpace(cfg.Speech.Binary) == "" {
		return nil, fmt.Errorf("speech.binary must not be empty")
	}

	if strings.TrimSpace(cfg.Transcribe.APIKey) == "" {
		warnings = append(warnings, Warning{
			Message: "transcription API key is empty; set VAANI_API_KEY or transcribe.api_key",
		})
	}

	return warnings, nil
}

func validateURL(name string, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s is not a valid URL: %q", name, raw)
	}
	return nil
}
