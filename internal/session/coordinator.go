package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vaani-cli/vaani/internal/fsm"
	"github.com/vaani-cli/vaani/internal/ipc"
	"github.com/vaani-cli/vaani/internal/media"
	"github.com/vaani-cli/vaani/internal/speech"
	"github.com/vaani-cli/vaani/internal/translate"
)

type action int

const (
	actionStop action = iota + 1
	actionCancel
)

var (
	// ErrNoAsset indicates a stage was requested before audio was loaded.
	ErrNoAsset = errors.New("no audio loaded")
	// ErrNoTranscript indicates translation was requested before transcription.
	ErrNoTranscript = errors.New("no transcript available")
	// ErrNoTranslation indicates speech was requested before translation.
	ErrNoTranslation = errors.New("no translation available")
	// ErrEmptyTranscript indicates the remote job produced no text.
	ErrEmptyTranscript = errors.New("no speech detected in the audio")
	// ErrSuperseded indicates the asset was replaced while a job was in
	// flight; the stale result is discarded.
	ErrSuperseded = errors.New("result discarded: audio was replaced")
)

// Transcriber runs one audio payload to a finished English transcript.
type Transcriber interface {
	Run(ctx context.Context, audio []byte) (string, error)
}

// Translator converts English text to Hindi.
type Translator interface {
	Translate(ctx context.Context, text string) (translate.Result, error)
}

// Speaker plays Hindi text aloud with progress reporting.
type Speaker interface {
	Speak(ctx context.Context, text string, onProgress speech.Progress) error
	Stop()
}

// Recorder is an in-flight microphone capture.
type Recorder interface {
	Stop() (*media.Asset, error)
	Discard()
	Elapsed() int64
	BytesCaptured() int64
}

// StartRecorder begins a microphone capture.
type StartRecorder func(ctx context.Context) (Recorder, error)

// RecordResult is the complete outcome of one RunRecording invocation.
type RecordResult struct {
	State         fsm.State
	Asset         *media.Asset
	Cancelled     bool
	Err           error
	Elapsed       int64
	BytesCaptured int64
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Coordinator orchestrates pipeline state transitions and side effects.
type Coordinator struct {
	logger     *slog.Logger
	transcribe Transcriber
	translate  Translator
	speak      Speaker
	record     StartRecorder
	listener   Listener
	exportDir  string

	mu         sync.RWMutex
	state      fsm.State
	session    Session
	recorder   Recorder
	generation int
	jobCancel  context.CancelFunc

	actions chan action
}

// NewCoordinator constructs a coordinator with safe default fallbacks.
func NewCoordinator(
	logger *slog.Logger,
	transcriber Transcriber,
	translator Translator,
	speaker Speaker,
	record StartRecorder,
	listener Listener,
	exportDir string,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if listener == nil {
		listener = NoopListener{}
	}
	return &Coordinator{
		logger:     logger,
		transcribe: transcriber,
		translate:  translator,
		speak:      speaker,
		record:     record,
		listener:   listener,
		exportDir:  exportDir,
		state:      fsm.StateIdle,
		session:    New(),
		actions:    make(chan action, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Coordinator) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns the current session snapshot.
func (c *Coordinator) Snapshot() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// transition applies one FSM event to the coordinator state.
func (c *Coordinator) transition(event fsm.Event) error {
	c.mu.Lock()
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.mu.Unlock()

	c.listener.OnState(next)
	return nil
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Coordinator) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

// update applies one pure session transition under the lock.
func (c *Coordinator) update(fn func(Session) Session) Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = fn(c.session)
	return c.session
}

// fail records the error on the session, notifies, and resets the FSM.
func (c *Coordinator) fail(err error) error {
	c.update(func(s Session) Session { return s.WithError(err) })
	c.listener.OnError(err)
	c.toErrorAndReset()
	return err
}

// info records and broadcasts a status message.
func (c *Coordinator) info(message string) {
	c.update(func(s Session) Session { return s.WithInfo(message) })
	c.listener.OnStatus(message)
}

// SubmitFile validates and loads an audio file as the session asset.
//
// A rejected file leaves the current asset untouched. A replaced asset
// cancels any in-flight transcription job; its late result is discarded.
// Loading a file never interrupts an active recording.
func (c *Coordinator) SubmitFile(path string) error {
	if c.State() == fsm.StateRecording {
		err := errors.New("cannot replace audio while recording")
		c.listener.OnError(err)
		return err
	}

	asset, err := media.NewAssetFromFile(path)
	if err != nil {
		return c.fail(err)
	}
	c.replaceAsset(asset)
	c.logger.Info("audio asset loaded", "name", asset.Name, "mime", asset.MIME, "bytes", asset.Size)
	c.info(fmt.Sprintf("Loaded %s (%d bytes)", asset.Name, asset.Size))
	return nil
}

// replaceAsset installs a new asset, releasing the old one and invalidating
// any in-flight job.
func (c *Coordinator) replaceAsset(asset *media.Asset) {
	c.mu.Lock()
	old := c.session.Asset
	cancel := c.jobCancel
	c.jobCancel = nil
	c.generation++
	c.session = c.session.WithAsset(asset)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	old.Release()
}

// RunRecording captures from the microphone until a stop or cancel action
// arrives, then installs the recording as the session asset.
func (c *Coordinator) RunRecording(ctx context.Context) RecordResult {
	result := RecordResult{StartedAt: time.Now()}

	if err := c.transition(fsm.EventRecord); err != nil {
		result.State = c.State()
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}

	recorder, err := c.record(ctx)
	if err != nil {
		c.toErrorAndReset()
		c.listener.OnError(err)
		result.State = c.State()
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}

	c.mu.Lock()
	c.recorder = recorder
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.recorder = nil
		c.mu.Unlock()
	}()

	c.info("Recording…")

	finish := func() {
		result.Elapsed = recorder.Elapsed()
		result.BytesCaptured = recorder.BytesCaptured()
		result.State = c.State()
		result.FinishedAt = time.Now()
	}

	select {
	case <-ctx.Done():
		recorder.Discard()
		_ = c.transition(fsm.EventCancel)
		result.Cancelled = true
		result.Err = ctx.Err()
		finish()
		return result
	case a := <-c.actions:
		switch a {
		case actionCancel:
			recorder.Discard()
			_ = c.transition(fsm.EventCancel)
			c.info("Recording cancelled")
			result.Cancelled = true
			finish()
			return result
		case actionStop:
			asset, stopErr := recorder.Stop()
			if stopErr != nil {
				c.toErrorAndReset()
				c.listener.OnError(stopErr)
				result.Err = stopErr
				finish()
				return result
			}
			_ = c.transition(fsm.EventStop)
			c.replaceAsset(asset)
			c.info(fmt.Sprintf("Recording completed (%s)", media.FormatClock(recorder.Elapsed())))
			result.Asset = asset
			finish()
			return result
		default:
			c.toErrorAndReset()
			result.Err = fmt.Errorf("unknown action %d", a)
			finish()
			return result
		}
	}
}

// Transcribe runs the loaded asset through the remote transcription job.
func (c *Coordinator) Transcribe(ctx context.Context) error {
	c.mu.Lock()
	if c.session.Asset == nil {
		c.mu.Unlock()
		return c.fail(ErrNoAsset)
	}
	audio := c.session.Asset.Data
	sourceName := c.session.Asset.Name
	gen := c.generation
	jobCtx, cancel := context.WithCancel(ctx)
	c.jobCancel = cancel
	c.mu.Unlock()
	defer cancel()

	if err := c.transition(fsm.EventTranscribe); err != nil {
		return c.fail(err)
	}

	text, err := c.transcribe.Run(jobCtx, audio)

	c.mu.Lock()
	superseded := c.generation != gen
	if c.jobCancel != nil {
		c.jobCancel = nil
	}
	c.mu.Unlock()

	if superseded {
		// The asset changed mid-job; drop the result without touching it.
		c.logger.Info("discarding stale transcription result")
		_ = c.transition(fsm.EventTranscribed)
		return ErrSuperseded
	}
	if err != nil {
		return c.fail(err)
	}
	if strings.TrimSpace(text) == "" {
		return c.fail(ErrEmptyTranscript)
	}

	if err := c.transition(fsm.EventTranscribed); err != nil {
		return c.fail(err)
	}
	c.update(func(s Session) Session { return s.WithTranscription(text) })
	c.listener.OnTranscription(text, sourceName)
	c.info("Transcription completed")
	return nil
}

// Translate converts the English transcript to Hindi.
func (c *Coordinator) Translate(ctx context.Context) error {
	snapshot := c.Snapshot()
	if !snapshot.HasTranscription() {
		return c.fail(ErrNoTranscript)
	}

	if err := c.transition(fsm.EventTranslate); err != nil {
		return c.fail(err)
	}
	c.info("Translating to Hindi…")

	result, err := c.translate.Translate(ctx, snapshot.English)
	if err != nil {
		return c.fail(err)
	}

	if err := c.transition(fsm.EventTranslated); err != nil {
		return c.fail(err)
	}
	c.update(func(s Session) Session { return s.WithTranslation(result.Text, result.ViaFallback) })
	c.listener.OnTranslation(result.Text)
	if result.ViaFallback {
		c.info("Translation completed via alternative service")
	} else {
		c.info("Translation completed")
	}
	return nil
}

// Speak plays the Hindi text aloud, reporting chunk progress.
func (c *Coordinator) Speak(ctx context.Context) error {
	snapshot := c.Snapshot()
	if !snapshot.HasTranslation() {
		return c.fail(ErrNoTranslation)
	}

	if err := c.transition(fsm.EventSpeak); err != nil {
		return c.fail(err)
	}
	c.info("Speaking…")

	err := c.speak.Speak(ctx, snapshot.Hindi, func(percent int) {
		c.update(func(s Session) Session { return s.WithProgress(percent) })
		c.listener.OnProgress(percent)
	})
	if err != nil {
		if errors.Is(err, speech.ErrInterrupted) {
			// Interrupted playback leaves nothing in flight; reset the bar.
			c.update(func(s Session) Session { return s.WithProgress(0) })
			c.listener.OnProgress(0)
			_ = c.transition(fsm.EventStop)
			c.info("Speech stopped")
			return nil
		}
		return c.fail(err)
	}

	if err := c.transition(fsm.EventSpoken); err != nil {
		return c.fail(err)
	}
	c.info("Speech completed")
	return nil
}

// StopSpeech interrupts in-flight playback, if any.
func (c *Coordinator) StopSpeech() {
	c.speak.Stop()
}

// Handle serves control commands for the active owner session.
func (c *Coordinator) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		resp := ipc.Response{OK: true, State: string(c.State()), Message: c.statusLine()}
		if snapshot := c.Snapshot(); snapshot.Progress > 0 {
			resp.Progress = snapshot.Progress
		}
		return resp
	case ipc.CommandToggle, ipc.CommandStop:
		return c.requestStop(req.Command)
	case ipc.CommandCancel:
		return c.requestCancel()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// statusLine renders the state plus recording clock when applicable.
func (c *Coordinator) statusLine() string {
	c.mu.RLock()
	state := c.state
	recorder := c.recorder
	message := c.session.Status
	c.mu.RUnlock()

	if state == fsm.StateRecording && recorder != nil {
		return fmt.Sprintf("recording %s", media.FormatClock(recorder.Elapsed()))
	}
	if message != "" {
		return message
	}
	return string(state)
}

// requestStop routes a stop to the recording loop or the speech queue.
func (c *Coordinator) requestStop(source ipc.Command) ipc.Response {
	state := c.State()
	switch state {
	case fsm.StateRecording:
		select {
		case c.actions <- actionStop:
			return ipc.Response{OK: true, State: string(state), Message: "stop requested"}
		default:
			return ipc.Response{OK: true, State: string(state), Message: "stop already requested"}
		}
	case fsm.StateSpeaking:
		c.StopSpeech()
		return ipc.Response{OK: true, State: string(state), Message: "speech stopped"}
	default:
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s from state %s", source, state)}
	}
}

// requestCancel enqueues a cancel action when recording.
func (c *Coordinator) requestCancel() ipc.Response {
	state := c.State()
	if state != fsm.StateRecording {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot cancel from state %s", state)}
	}
	select {
	case c.actions <- actionCancel:
		return ipc.Response{OK: true, State: string(state), Message: "cancel requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "cancel already requested"}
	}
}
