// Package session coordinates the capture, transcription, translation, and
// speech lifecycle around one audio asset.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/vaani-cli/vaani/internal/media"
)

// Session is an immutable snapshot of one pipeline run. Transitions return
// a new value; resource release and side effects belong to the Coordinator.
type Session struct {
	ID        string
	StartedAt time.Time

	Asset       *media.Asset
	English     string
	Hindi       string
	ViaFallback bool

	Status   string
	Progress int
	Err      error
}

// New starts a fresh session snapshot.
func New() Session {
	return Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// WithAsset replaces the audio asset and clears all derived results.
func (s Session) WithAsset(asset *media.Asset) Session {
	next := s
	next.Asset = asset
	next.English = ""
	next.Hindi = ""
	next.ViaFallback = false
	next.Progress = 0
	next.Err = nil
	next.Status = ""
	return next
}

// WithTranscription records the English transcript and drops any stale
// translation derived from a previous transcript.
func (s Session) WithTranscription(text string) Session {
	next := s
	next.English = text
	next.Hindi = ""
	next.ViaFallback = false
	next.Err = nil
	return next
}

// WithTranslation records the Hindi text.
func (s Session) WithTranslation(text string, viaFallback bool) Session {
	next := s
	next.Hindi = text
	next.ViaFallback = viaFallback
	next.Err = nil
	return next
}

// WithProgress records speech completion percent.
func (s Session) WithProgress(percent int) Session {
	next := s
	next.Progress = percent
	return next
}

// WithError records a failure without losing accumulated results. The
// status message and error are mutually exclusive.
func (s Session) WithError(err error) Session {
	next := s
	next.Err = err
	next.Status = ""
	return next
}

// WithInfo records a human-readable status message and clears any stale
// error.
func (s Session) WithInfo(message string) Session {
	next := s
	next.Status = message
	next.Err = nil
	return next
}

// HasAsset reports whether audio is loaded.
func (s Session) HasAsset() bool {
	return s.Asset != nil
}

// HasTranscription reports whether English text is available.
func (s Session) HasTranscription() bool {
	return s.English != ""
}

// HasTranslation reports whether Hindi text is available.
func (s Session) HasTranslation() bool {
	return s.Hindi != ""
}
