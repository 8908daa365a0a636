package media

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vaani-cli/vaani/internal/audio"
)

// Recorder drives a microphone capture and tracks elapsed recording time.
type Recorder struct {
	capture *audio.Capture
	started time.Time
	seconds atomic.Int64
	done    chan struct{}
}

// StartRecording begins capturing from the configured input device.
//
// Device acquisition failures are surfaced as ErrPermissionDenied so the
// caller can report a single consistent message for microphone problems.
func StartRecording(ctx context.Context, input, fallback string) (*Recorder, error) {
	selection, err := audio.SelectDevice(ctx, input, fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	capture, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	r := &Recorder{
		capture: capture,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	go r.tick()
	return r, nil
}

// tick advances the elapsed counter once per second until the recorder stops.
func (r *Recorder) tick() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.seconds.Add(1)
		}
	}
}

// Elapsed returns whole seconds since recording started.
func (r *Recorder) Elapsed() int64 {
	return r.seconds.Load()
}

// BytesCaptured reports raw PCM bytes accepted so far.
func (r *Recorder) BytesCaptured() int64 {
	return r.capture.BytesCaptured()
}

// Stop ends the capture and wraps the PCM into a WAV asset.
func (r *Recorder) Stop() (*Asset, error) {
	r.halt()
	if err := r.capture.Stop(); err != nil {
		return nil, fmt.Errorf("stop capture: %w", err)
	}
	return NewAssetFromRecording(r.capture.PCM(), time.Now())
}

// Discard ends the capture and drops the audio without producing an asset.
func (r *Recorder) Discard() {
	r.halt()
	_ = r.capture.Stop()
}

func (r *Recorder) halt() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

// FormatClock renders elapsed seconds as m:ss for status output.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
