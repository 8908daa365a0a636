package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// fileConfig is the on-disk JSON shape; durations are expressed in seconds.
type fileConfig struct {
	Transcribe *struct {
		BaseURL             string `json:"base_url"`
		APIKey              string `json:"api_key"`
		PollIntervalSeconds int    `json:"poll_interval_seconds"`
		PollDeadlineSeconds int    `json:"poll_deadline_seconds"`
		MaxPollAttempts     int    `json:"max_poll_attempts"`
	} `json:"transcribe"`
	Translate *struct {
		PrimaryURL  string `json:"primary_url"`
		FallbackURL string `json:"fallback_url"`
		SourceLang  string `json:"source_lang"`
		TargetLang  string `json:"target_lang"`
	} `json:"translate"`
	Speech *struct {
		Voice  string   `json:"voice"`
		Lang   string   `json:"lang"`
		Rate   *float64 `json:"rate"`
		Volume *float64 `json:"volume"`
		Binary string   `json:"binary"`
	} `json:"speech"`
	Audio *struct {
		Input    string `json:"input"`
		Fallback string `json:"fallback"`
	} `json:"audio"`
	Export *struct {
		Dir string `json:"dir"`
	} `json:"export"`
	Debug *struct {
		AudioDump bool `json:"audio_dump"`
	} `json:"debug"`
}

// Load resolves, reads, parses, and validates the runtime configuration.
//
// Precedence: defaults < config file < environment (.env is loaded best-effort
// before environment variables are read).
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	cfg := Default()
	loaded := Loaded{Path: resolvedPath}

	content, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		if err := applyFile(&cfg, content); err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
		}
		loaded.Exists = true
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	default:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()
	applyEnv(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, err
	}
	loaded.Config = cfg
	loaded.Warnings = append(loaded.Warnings, warnings...)
	return loaded, nil
}

// ResolvePath returns the explicit path or the XDG default config location.
func ResolvePath(explicitPath string) (string, error) {
	if strings.TrimSpace(explicitPath) != "" {
		return explicitPath, nil
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "vaani", "config.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for config: %w", err)
	}
	return filepath.Join(home, ".config", "vaani", "config.json"), nil
}

// applyFile overlays JSON file values onto cfg.
func applyFile(cfg *Config, content []byte) error {
	var fc fileConfig
	if err := json.Unmarshal(content, &fc); err != nil {
		return err
	}

	if t := fc.Transcribe; t != nil {
		overlayString(&cfg.Transcribe.BaseURL, t.BaseURL)
		overlayString(&cfg.Transcribe.APIKey, t.APIKey)
		if t.PollIntervalSeconds > 0 {
			cfg.Transcribe.PollInterval = time.Duration(t.PollIntervalSeconds) * time.Second
		}
		if t.PollDeadlineSeconds > 0 {
			cfg.Transcribe.PollDeadline = time.Duration(t.PollDeadlineSeconds) * time.Second
		}
		if t.MaxPollAttempts > 0 {
			cfg.Transcribe.MaxPollAttempts = t.MaxPollAttempts
		}
	}
	if t := fc.Translate; t != nil {
		overlayString(&cfg.Translate.PrimaryURL, t.PrimaryURL)
		overlayString(&cfg.Translate.FallbackURL, t.FallbackURL)
		overlayString(&cfg.Translate.SourceLang, t.SourceLang)
		overlayString(&cfg.Translate.TargetLang, t.TargetLang)
	}
	if s := fc.Speech; s != nil {
		overlayString(&cfg.Speech.Voice, s.Voice)
		overlayString(&cfg.Speech.Lang, s.Lang)
		overlayString(&cfg.Speech.Binary, s.Binary)
		if s.Rate != nil {
			cfg.Speech.Rate = *s.Rate
		}
		if s.Volume != nil {
			cfg.Speech.Volume = *s.Volume
		}
	}
	if a := fc.Audio; a != nil {
		overlayString(&cfg.Audio.Input, a.Input)
		overlayString(&cfg.Audio.Fallback, a.Fallback)
	}
	if e := fc.Export; e != nil {
		overlayString(&cfg.Export.Dir, e.Dir)
	}
	if d := fc.Debug; d != nil {
		cfg.Debug.EnableAudioDump = d.AudioDump
	}
	return nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	overlayString(&cfg.Transcribe.APIKey, os.Getenv("VAANI_API_KEY"))
	overlayString(&cfg.Transcribe.BaseURL, os.Getenv("VAANI_TRANSCRIBE_URL"))
	overlayString(&cfg.Translate.PrimaryURL, os.Getenv("VAANI_TRANSLATE_URL"))
	overlayString(&cfg.Translate.FallbackURL, os.Getenv("VAANI_TRANSLATE_FALLBACK_URL"))
}

func overlayString(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}
