package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsPassWithAPIKeyWarning(t *testing.T) {
	t.Parallel()

	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "API key")
}

func TestValidateRejectsBadURL(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Translate.PrimaryURL = "not a url"
	_, err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "translate.primary_url")
}

func TestValidateRejectsRateOutOfRange(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Transcribe.APIKey = "k"
	cfg.Speech.Rate = 2.5
	_, err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "speech.rate")
}

func TestValidateRejectsVolumeOutOfRange(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Speech.Volume = -0.1
	_, err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "speech.volume")
}

func TestValidateRejectsNonPositivePolling(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Transcribe.PollInterval = 0
	_, err := Validate(cfg)
	require.Error(t, err)

	cfg = Default()
	cfg.Transcribe.MaxPollAttempts = 0
	_, err = Validate(cfg)
	require.Error(t, err)
}
