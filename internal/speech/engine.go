package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoText indicates there is nothing to speak.
	ErrNoText = errors.New("no text to speak")
	// ErrEngineUnavailable indicates no usable synthesis engine was found.
	ErrEngineUnavailable = errors.New("speech engine is not available")
)

// ErrorKind classifies a synthesis failure for queue policy decisions.
type ErrorKind int

const (
	// KindTransient failures skip the current chunk after a short delay.
	KindTransient ErrorKind = iota
	// KindInterrupted means playback was deliberately cancelled.
	KindInterrupted
	// KindFatal failures abort the whole queue.
	KindFatal
)

// EngineError is a classified synthesis failure.
type EngineError struct {
	Kind ErrorKind
	Err  error
}

func (e *EngineError) Error() string {
	switch e.Kind {
	case KindInterrupted:
		return "speech interrupted"
	case KindFatal:
		return fmt.Sprintf("speech engine failed: %v", e.Err)
	default:
		return fmt.Sprintf("speech chunk failed: %v", e.Err)
	}
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Voice describes one installed synthesis voice.
type Voice struct {
	Name string
	Lang string
}

// Utterance is one chunk of text plus its delivery parameters.
type Utterance struct {
	Text   string
	Voice  string
	Lang   string
	Rate   float64
	Pitch  float64
	Volume float64
}

// Engine synthesizes utterances. Speak blocks until playback completes,
// is cancelled via Cancel, or the context ends.
type Engine interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, u Utterance) error
	Cancel()
	Available() error
}

// PickVoice chooses a voice for the target language.
//
// An explicit preference wins when installed. Otherwise the first voice
// whose language or name suggests Hindi/Devanagari support is used, then
// any voice matching the language prefix, then the first installed voice.
// With no voices at all the engine default (empty name) is used.
func PickVoice(voices []Voice, preferred string, lang string) string {
	if preferred != "" {
		for _, v := range voices {
			if v.Name == preferred {
				return preferred
			}
		}
	}
	for _, v := range voices {
		if matchesHindi(v) {
			return v.Name
		}
	}
	for _, v := range voices {
		if hasLangPrefix(v.Lang, lang) {
			return v.Name
		}
	}
	if len(voices) > 0 {
		return voices[0].Name
	}
	return ""
}

func matchesHindi(v Voice) bool {
	name := strings.ToLower(v.Name)
	return hasLangPrefix(v.Lang, "hi") ||
		strings.Contains(name, "hindi") ||
		strings.Contains(name, "devanagari")
}

func hasLangPrefix(lang, prefix string) bool {
	return prefix != "" && (lang == prefix || strings.HasPrefix(lang, prefix))
}
