// Package doctor runs runtime readiness diagnostics for config, tools,
// audio, and the transcription service.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/vaani-cli/vaani/internal/audio"
	"github.com/vaani-cli/vaani/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{
		{
			Name:    "config",
			Pass:    true,
			Message: fmt.Sprintf("loaded %q", cfg.Path),
		},
		checkAPIKey(cfg.Config),
		checkBinary(cfg.Config.Speech.Binary, "speech synthesis available"),
		checkAudioSelection(cfg.Config),
		checkTranscribeEndpoint(cfg.Config),
	}
	return Report{Checks: checks}
}

// checkAPIKey verifies the transcription key is configured.
func checkAPIKey(cfg config.Config) Check {
	if strings.TrimSpace(cfg.Transcribe.APIKey) == "" {
		return Check{Name: "transcribe.api_key", Pass: false, Message: "not set; export VAANI_API_KEY or add it to the config file"}
	}
	return Check{Name: "transcribe.api_key", Pass: true, Message: "configured"}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	if strings.TrimSpace(bin) == "" {
		return Check{Name: "speech.binary", Pass: false, Message: "speech binary is not configured"}
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkTranscribeEndpoint probes the transcription base URL. Any HTTP answer
// counts as reachable; auth failures are expected without a request body.
func checkTranscribeEndpoint(cfg config.Config) Check {
	base := strings.TrimSpace(cfg.Transcribe.BaseURL)
	if base == "" {
		return Check{Name: "transcribe.endpoint", Pass: false, Message: "base URL is empty"}
	}

	client := http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(strings.TrimRight(base, "/") + "/transcript")
	if err != nil {
		return Check{Name: "transcribe.endpoint", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	return Check{Name: "transcribe.endpoint", Pass: true, Message: fmt.Sprintf("reachable (HTTP %d)", resp.StatusCode)}
}
