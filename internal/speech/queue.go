package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vaani-cli/vaani/internal/config"
)

const (
	// chunkGap is the pause between successfully spoken chunks.
	chunkGap = 200 * time.Millisecond
	// skipDelay is the pause before moving past a failed chunk.
	skipDelay = 500 * time.Millisecond
)

// ErrInterrupted is returned when playback is stopped mid-queue.
var ErrInterrupted = errors.New("speech stopped")

// SpeechError is a terminal queue failure: a fatal engine error, or a
// transient failure on the last chunk with nothing left to skip to.
type SpeechError struct {
	Reason string
	Err    error
}

func (e *SpeechError) Error() string {
	return "speech failed: " + e.Reason
}

func (e *SpeechError) Unwrap() error {
	return e.Err
}

// Progress receives completion percent after each chunk finishes.
type Progress func(percent int)

// Queue speaks translated text one chunk at a time through an Engine.
type Queue struct {
	engine Engine
	cfg    config.SpeechConfig

	gap  time.Duration
	skip time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue builds a Queue around an engine with the configured delivery
// parameters.
func NewQueue(engine Engine, cfg config.SpeechConfig) *Queue {
	return &Queue{
		engine: engine,
		cfg:    cfg,
		gap:    chunkGap,
		skip:   skipDelay,
	}
}

// Speaking reports whether a Speak call is currently in flight.
func (q *Queue) Speaking() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cancel != nil
}

// Speak chunks the text and plays it sequentially, reporting progress after
// each completed chunk. A new Speak call supersedes any playback still in
// flight. A chunk that fails transiently is skipped after a short delay,
// never retried, and never reported as completed; a transient failure on the
// last chunk, or any fatal engine error, terminates with a SpeechError.
// Interruption resets progress to 0.
func (q *Queue) Speak(ctx context.Context, text string, onProgress Progress) error {
	chunks := Chunk(text)
	if len(chunks) == 0 {
		return ErrNoText
	}
	if err := q.engine.Available(); err != nil {
		return ErrEngineUnavailable
	}
	if onProgress == nil {
		onProgress = func(int) {}
	}
	interrupted := func() error {
		onProgress(0)
		return ErrInterrupted
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	for {
		q.mu.Lock()
		if q.cancel == nil {
			q.cancel = cancel
			q.done = done
			q.mu.Unlock()
			break
		}
		prevCancel, prevDone := q.cancel, q.done
		q.mu.Unlock()

		prevCancel()
		q.engine.Cancel()
		<-prevDone
	}
	defer func() {
		q.mu.Lock()
		q.cancel = nil
		q.done = nil
		q.mu.Unlock()
		close(done)
	}()

	voice := q.resolveVoice(ctx)

	total := len(chunks)
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			return interrupted()
		}

		err := q.engine.Speak(ctx, Utterance{
			Text:   chunk,
			Voice:  voice,
			Lang:   q.cfg.Lang,
			Rate:   q.cfg.Rate,
			Pitch:  1,
			Volume: q.cfg.Volume,
		})
		if err != nil {
			var engineErr *EngineError
			if errors.As(err, &engineErr) {
				switch engineErr.Kind {
				case KindInterrupted:
					return interrupted()
				case KindTransient:
					if i == total-1 {
						return &SpeechError{Reason: err.Error(), Err: err}
					}
					// Skip this chunk; it is never re-spoken and does
					// not count as completed.
					if !sleepCtx(ctx, q.skip) {
						return interrupted()
					}
					continue
				}
			}
			return &SpeechError{Reason: err.Error(), Err: err}
		}

		onProgress(percentDone(i+1, total))

		if i < total-1 {
			if !sleepCtx(ctx, q.gap) {
				return interrupted()
			}
		}
	}
	return nil
}

// Stop interrupts the in-flight Speak call, if any.
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	q.engine.Cancel()
}

// resolveVoice applies voice preference and Hindi heuristics against the
// engine's installed voices. Voice listing failures fall back to the engine
// default rather than blocking speech.
func (q *Queue) resolveVoice(ctx context.Context) string {
	voices, err := q.engine.Voices(ctx)
	if err != nil {
		return q.cfg.Voice
	}
	return PickVoice(voices, q.cfg.Voice, q.cfg.Lang)
}

// percentDone rounds chunk completion to a whole percent.
func percentDone(done, total int) int {
	return (100*done + total/2) / total
}

// sleepCtx waits for d or until ctx ends; it reports whether the full wait
// elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
