package session

import "github.com/vaani-cli/vaani/internal/fsm"

// Listener observes coordinator lifecycle changes.
type Listener interface {
	OnState(state fsm.State)
	OnStatus(message string)
	OnTranscription(text, sourceName string)
	OnTranslation(text string)
	OnProgress(percent int)
	OnError(err error)
}

// NoopListener preserves coordinator flow when no listener is wired.
type NoopListener struct{}

func (NoopListener) OnState(fsm.State)              {}
func (NoopListener) OnStatus(string)                {}
func (NoopListener) OnTranscription(string, string) {}
func (NoopListener) OnTranslation(string)           {}
func (NoopListener) OnProgress(int)                 {}
func (NoopListener) OnError(error)                  {}
