// Package translate converts English transcripts to Hindi via a primary
// public endpoint with an automatic fallback service.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vaani-cli/vaani/internal/config"
)

// ErrEmptyTranslation indicates both services answered but produced no text.
var ErrEmptyTranslation = errors.New("translation produced no text")

// UnavailableError indicates both the primary and fallback services failed.
type UnavailableError struct {
	Primary  error
	Fallback error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("translation services unavailable (primary: %v; fallback: %v)", e.Primary, e.Fallback)
}

// Result carries translated text plus which service produced it.
type Result struct {
	Text        string
	ViaFallback bool
}

// Translator issues translation requests per the configured endpoints.
type Translator struct {
	cfg  config.TranslateConfig
	http *http.Client
}

// New builds a Translator from the translate config section.
func New(cfg config.TranslateConfig) *Translator {
	return &Translator{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Translate converts text from the source to the target language.
//
// The primary endpoint is tried first; a primary failure, including an answer
// that carries no text, falls through to the fallback service. An empty input
// short-circuits to ErrEmptyTranslation without a network call.
func (t *Translator) Translate(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyTranslation
	}

	translated, primaryErr := t.translatePrimary(ctx, text)
	if primaryErr == nil {
		if translated = strings.TrimSpace(translated); translated != "" {
			return Result{Text: translated}, nil
		}
		primaryErr = ErrEmptyTranslation
	}

	translated, fallbackErr := t.translateFallback(ctx, text)
	if fallbackErr != nil {
		return Result{}, &UnavailableError{Primary: primaryErr, Fallback: fallbackErr}
	}
	if translated = strings.TrimSpace(translated); translated == "" {
		return Result{}, ErrEmptyTranslation
	}
	return Result{Text: translated, ViaFallback: true}, nil
}

// translatePrimary calls the gtx-style GET endpoint and reassembles the
// fragmented response segments.
func (t *Translator) translatePrimary(ctx context.Context, text string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", t.cfg.SourceLang)
	query.Set("tl", t.cfg.TargetLang)
	query.Set("dt", "t")
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.PrimaryURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build primary request: %w", err)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("primary translation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("primary translation status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read primary response: %w", err)
	}
	return parseSegmentedResponse(body)
}

// parseSegmentedResponse decodes the nested-array payload: the first element
// is a list of segments whose first element is the translated fragment.
func parseSegmentedResponse(body []byte) (string, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return "", fmt.Errorf("decode primary response: %w", err)
	}
	if len(outer) == 0 {
		return "", errors.New("primary response has no segments")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(outer[0], &segments); err != nil {
		return "", fmt.Errorf("decode primary segments: %w", err)
	}

	var sb strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var fragment string
		if err := json.Unmarshal(segment[0], &fragment); err != nil {
			continue
		}
		sb.WriteString(fragment)
	}
	return sb.String(), nil
}

type fallbackRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type fallbackResponse struct {
	TranslatedText string `json:"translatedText"`
}

// translateFallback calls the JSON POST fallback service.
func (t *Translator) translateFallback(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(fallbackRequest{
		Q:      text,
		Source: t.cfg.SourceLang,
		Target: t.cfg.TargetLang,
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("encode fallback request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.FallbackURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build fallback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fallback translation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fallback translation status %d", resp.StatusCode)
	}

	var parsed fallbackResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode fallback response: %w", err)
	}
	return parsed.TranslatedText, nil
}
