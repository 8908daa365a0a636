package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateTranslating  State = "translating"
	StateSpeaking     State = "speaking"
	StateError        State = "error"
)

const (
	EventRecord      Event = "record"
	EventStop        Event = "stop"
	EventCancel      Event = "cancel"
	EventTranscribe  Event = "transcribe"
	EventTranscribed Event = "transcribed"
	EventTranslate   Event = "translate"
	EventTranslated  Event = "translated"
	EventSpeak       Event = "speak"
	EventSpoken      Event = "spoken"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
)

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventRecord:
			return StateRecording, nil
		case EventTranscribe:
			return StateTranscribing, nil
		case EventTranslate:
			return StateTranslating, nil
		case EventSpeak:
			return StateSpeaking, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateIdle, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTranscribing:
		switch event {
		case EventTranscribed:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTranslating:
		switch event {
		case EventTranslated:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSpeaking:
		switch event {
		case EventSpoken:
			return StateIdle, nil
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
