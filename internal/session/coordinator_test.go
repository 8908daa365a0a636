package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vaani-cli/vaani/internal/fsm"
	"github.com/vaani-cli/vaani/internal/ipc"
	"github.com/vaani-cli/vaani/internal/media"
	"github.com/vaani-cli/vaani/internal/speech"
	"github.com/vaani-cli/vaani/internal/translate"
)

type fakeTranscriber struct {
	mu      sync.Mutex
	text    string
	err     error
	started chan struct{} // closed when Run begins, if set
	release chan struct{} // Run blocks until closed or ctx done, if set
	calls   int
}

func (f *fakeTranscriber) Run(ctx context.Context, _ []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-release:
		}
	}
	return f.text, f.err
}

type fakeTranslator struct {
	result translate.Result
	err    error
	input  string
}

func (f *fakeTranslator) Translate(_ context.Context, text string) (translate.Result, error) {
	f.input = text
	return f.result, f.err
}

type fakeSpeaker struct {
	mu       sync.Mutex
	spoken   string
	err      error
	stopped  bool
	block    chan struct{} // Speak waits here after its first progress report, if set
	progress []int
}

func (f *fakeSpeaker) Speak(_ context.Context, text string, onProgress speech.Progress) error {
	f.mu.Lock()
	f.spoken = text
	block := f.block
	f.mu.Unlock()

	report := func(p int) {
		f.mu.Lock()
		f.progress = append(f.progress, p)
		f.mu.Unlock()
		if onProgress != nil {
			onProgress(p)
		}
	}

	report(50)
	if block != nil {
		<-block
	}
	if f.err != nil {
		return f.err
	}
	report(100)
	return nil
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

type fakeRecorder struct {
	asset     *media.Asset
	stopErr   error
	discarded bool
}

func (f *fakeRecorder) Stop() (*media.Asset, error) { return f.asset, f.stopErr }
func (f *fakeRecorder) Discard()                    { f.discarded = true }
func (f *fakeRecorder) Elapsed() int64              { return 7 }
func (f *fakeRecorder) BytesCaptured() int64        { return 1024 }

type recordingListener struct {
	mu             sync.Mutex
	states         []fsm.State
	statuses       []string
	transcriptions []string
	translations   []string
	progress       []int
	errs           []error
}

func (l *recordingListener) OnState(s fsm.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *recordingListener) OnStatus(m string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, m)
}

func (l *recordingListener) OnTranscription(text, sourceName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transcriptions = append(l.transcriptions, sourceName+": "+text)
}

func (l *recordingListener) OnTranslation(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.translations = append(l.translations, text)
}

func (l *recordingListener) OnProgress(p int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.progress = append(l.progress, p)
}

func (l *recordingListener) OnError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

type fixture struct {
	coordinator *Coordinator
	transcriber *fakeTranscriber
	translator  *fakeTranslator
	speaker     *fakeSpeaker
	recorder    *fakeRecorder
	listener    *recordingListener
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		transcriber: &fakeTranscriber{text: "hello world"},
		translator:  &fakeTranslator{result: translate.Result{Text: "नमस्ते दुनिया"}},
		speaker:     &fakeSpeaker{},
		recorder:    &fakeRecorder{},
		listener:    &recordingListener{},
	}
	f.coordinator = NewCoordinator(
		nil,
		f.transcriber,
		f.translator,
		f.speaker,
		func(context.Context) (Recorder, error) { return f.recorder, nil },
		f.listener,
		t.TempDir(),
	)
	return f
}

func writeAudioFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake-audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSubmitFileInstallsAsset(t *testing.T) {
	f := newFixture(t)
	path := writeAudioFile(t, "demo.mp3")

	if err := f.coordinator.SubmitFile(path); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}

	snapshot := f.coordinator.Snapshot()
	if !snapshot.HasAsset() || snapshot.Asset.Name != "demo.mp3" {
		t.Fatalf("asset = %+v", snapshot.Asset)
	}
	t.Cleanup(snapshot.Asset.Release)
}

func TestSubmitFileRejectionKeepsCurrentAsset(t *testing.T) {
	f := newFixture(t)
	good := writeAudioFile(t, "demo.mp3")
	if err := f.coordinator.SubmitFile(good); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}
	t.Cleanup(f.coordinator.Snapshot().Asset.Release)

	bad := writeAudioFile(t, "notes.txt")
	err := f.coordinator.SubmitFile(bad)
	if !errors.Is(err, media.ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}

	snapshot := f.coordinator.Snapshot()
	if snapshot.Asset == nil || snapshot.Asset.Name != "demo.mp3" {
		t.Fatal("a rejected file must leave the prior asset unchanged")
	}
	if f.coordinator.State() != fsm.StateIdle {
		t.Fatalf("state = %s", f.coordinator.State())
	}
}

func TestSubmitFileRejectedWhileRecording(t *testing.T) {
	f := newFixture(t)

	done := make(chan RecordResult, 1)
	go func() { done <- f.coordinator.RunRecording(context.Background()) }()
	waitForState(t, f.coordinator, fsm.StateRecording)

	path := writeAudioFile(t, "demo.mp3")
	if err := f.coordinator.SubmitFile(path); err == nil {
		t.Fatal("SubmitFile must be rejected during an active recording")
	}
	if f.coordinator.State() != fsm.StateRecording {
		t.Fatalf("state = %s", f.coordinator.State())
	}

	resp := f.coordinator.Handle(context.Background(), ipc.Request{Command: ipc.CommandCancel})
	if !resp.OK {
		t.Fatalf("cancel response: %+v", resp)
	}
	<-done
}

func TestRunRecordingStopInstallsRecording(t *testing.T) {
	f := newFixture(t)
	asset, err := media.NewAssetFromRecording([]byte{1, 2, 3, 4}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(asset.Release)
	f.recorder.asset = asset

	done := make(chan RecordResult, 1)
	go func() { done <- f.coordinator.RunRecording(context.Background()) }()

	waitForState(t, f.coordinator, fsm.StateRecording)

	resp := f.coordinator.Handle(context.Background(), ipc.Request{Command: ipc.CommandToggle})
	if !resp.OK {
		t.Fatalf("toggle response: %+v", resp)
	}

	result := <-done
	if result.Err != nil || result.Cancelled {
		t.Fatalf("result = %+v", result)
	}
	if result.Asset != asset || result.Elapsed != 7 || result.BytesCaptured != 1024 {
		t.Fatalf("result = %+v", result)
	}
	if got := f.coordinator.Snapshot().Asset; got != asset {
		t.Fatal("recording must become the session asset")
	}
}

func TestRunRecordingCancelDiscards(t *testing.T) {
	f := newFixture(t)

	done := make(chan RecordResult, 1)
	go func() { done <- f.coordinator.RunRecording(context.Background()) }()

	waitForState(t, f.coordinator, fsm.StateRecording)

	resp := f.coordinator.Handle(context.Background(), ipc.Request{Command: ipc.CommandCancel})
	if !resp.OK {
		t.Fatalf("cancel response: %+v", resp)
	}

	result := <-done
	if !result.Cancelled || result.Err != nil {
		t.Fatalf("result = %+v", result)
	}
	if !f.recorder.discarded {
		t.Fatal("cancelled recording must be discarded")
	}
	if f.coordinator.Snapshot().HasAsset() {
		t.Fatal("cancelled recording must not install an asset")
	}
}

func TestRunRecordingStartFailure(t *testing.T) {
	f := newFixture(t)
	startErr := errors.New("no microphone")
	f.coordinator.record = func(context.Context) (Recorder, error) { return nil, startErr }

	result := f.coordinator.RunRecording(context.Background())
	if !errors.Is(result.Err, startErr) {
		t.Fatalf("result.Err = %v", result.Err)
	}
	if f.coordinator.State() != fsm.StateIdle {
		t.Fatalf("state = %s", f.coordinator.State())
	}
}

func TestTranscribeRecordsEnglish(t *testing.T) {
	f := newFixture(t)
	mustSubmit(t, f)

	if err := f.coordinator.Transcribe(context.Background()); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	snapshot := f.coordinator.Snapshot()
	if snapshot.English != "hello world" {
		t.Fatalf("English = %q", snapshot.English)
	}
	if f.coordinator.State() != fsm.StateIdle {
		t.Fatalf("state = %s", f.coordinator.State())
	}

	f.listener.mu.Lock()
	transcriptions := append([]string(nil), f.listener.transcriptions...)
	f.listener.mu.Unlock()
	if len(transcriptions) != 1 || transcriptions[0] != "demo.mp3: hello world" {
		t.Fatalf("transcriptions = %v", transcriptions)
	}
}

func TestTranscribeRequiresAsset(t *testing.T) {
	f := newFixture(t)
	if err := f.coordinator.Transcribe(context.Background()); !errors.Is(err, ErrNoAsset) {
		t.Fatalf("err = %v", err)
	}
}

func TestTranscribeEmptyTranscript(t *testing.T) {
	f := newFixture(t)
	f.transcriber.text = "   "
	mustSubmit(t, f)

	err := f.coordinator.Transcribe(context.Background())
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("err = %v", err)
	}
	if f.coordinator.State() != fsm.StateIdle {
		t.Fatalf("state = %s", f.coordinator.State())
	}
}

func TestTranscribeSupersededByNewAsset(t *testing.T) {
	f := newFixture(t)
	f.transcriber.started = make(chan struct{})
	f.transcriber.release = make(chan struct{})
	mustSubmit(t, f)

	done := make(chan error, 1)
	go func() { done <- f.coordinator.Transcribe(context.Background()) }()
	<-f.transcriber.started

	// Replacing the asset mid-job cancels the job and discards its result.
	replacement := writeAudioFile(t, "second.wav")
	if err := f.coordinator.SubmitFile(replacement); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}
	t.Cleanup(f.coordinator.Snapshot().Asset.Release)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("err = %v", err)
	}

	snapshot := f.coordinator.Snapshot()
	if snapshot.HasTranscription() {
		t.Fatal("stale transcription must be discarded")
	}
	if snapshot.Asset == nil || snapshot.Asset.Name != "second.wav" {
		t.Fatalf("asset = %+v", snapshot.Asset)
	}
	if f.coordinator.State() != fsm.StateIdle {
		t.Fatalf("state = %s", f.coordinator.State())
	}
}

func TestTranslateRecordsHindi(t *testing.T) {
	f := newFixture(t)
	mustTranscribe(t, f)

	if err := f.coordinator.Translate(context.Background()); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	snapshot := f.coordinator.Snapshot()
	if snapshot.Hindi != "नमस्ते दुनिया" || snapshot.ViaFallback {
		t.Fatalf("snapshot = %+v", snapshot)
	}
	if f.translator.input != "hello world" {
		t.Fatalf("translator input = %q", f.translator.input)
	}

	f.listener.mu.Lock()
	translations := append([]string(nil), f.listener.translations...)
	f.listener.mu.Unlock()
	if len(translations) != 1 || translations[0] != "नमस्ते दुनिया" {
		t.Fatalf("translations = %v", translations)
	}
}

func TestTranslateRequiresTranscript(t *testing.T) {
	f := newFixture(t)
	if err := f.coordinator.Translate(context.Background()); !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("err = %v", err)
	}
}

func TestTranslateFailureResetsState(t *testing.T) {
	f := newFixture(t)
	mustTranscribe(t, f)
	f.translator.err = &translate.UnavailableError{Primary: errors.New("down"), Fallback: errors.New("down")}

	err := f.coordinator.Translate(context.Background())
	var unavailable *translate.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v", err)
	}
	if f.coordinator.State() != fsm.StateIdle {
		t.Fatalf("state = %s", f.coordinator.State())
	}
	if got := f.coordinator.Snapshot().Err; got == nil {
		t.Fatal("session must record the failure")
	}
}

func TestSpeakReportsProgress(t *testing.T) {
	f := newFixture(t)
	mustTranslate(t, f)

	if err := f.coordinator.Speak(context.Background()); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if f.speaker.spoken != "नमस्ते दुनिया" {
		t.Fatalf("spoken = %q", f.speaker.spoken)
	}
	if got := f.coordinator.Snapshot().Progress; got != 100 {
		t.Fatalf("progress = %d", got)
	}

	f.listener.mu.Lock()
	progress := append([]int(nil), f.listener.progress...)
	f.listener.mu.Unlock()
	if len(progress) != 2 || progress[0] != 50 || progress[1] != 100 {
		t.Fatalf("listener progress = %v", progress)
	}
}

func TestSpeakInterruptedIsNotAnError(t *testing.T) {
	f := newFixture(t)
	mustTranslate(t, f)
	f.speaker.err = speech.ErrInterrupted

	if err := f.coordinator.Speak(context.Background()); err != nil {
		t.Fatalf("interrupted speech should resolve cleanly, got %v", err)
	}
	if f.coordinator.State() != fsm.StateIdle {
		t.Fatalf("state = %s", f.coordinator.State())
	}

	// A stop mid-speech clears any partial progress.
	if got := f.coordinator.Snapshot().Progress; got != 0 {
		t.Fatalf("progress after stop = %d, want 0", got)
	}
	f.listener.mu.Lock()
	progress := append([]int(nil), f.listener.progress...)
	f.listener.mu.Unlock()
	if len(progress) == 0 || progress[len(progress)-1] != 0 {
		t.Fatalf("listener progress = %v, want trailing 0", progress)
	}
}

func TestSpeakRequiresTranslation(t *testing.T) {
	f := newFixture(t)
	if err := f.coordinator.Speak(context.Background()); !errors.Is(err, ErrNoTranslation) {
		t.Fatalf("err = %v", err)
	}
}

func TestHandleStatusAndUnknown(t *testing.T) {
	f := newFixture(t)

	resp := f.coordinator.Handle(context.Background(), ipc.Request{Command: ipc.CommandStatus})
	if !resp.OK || resp.State != string(fsm.StateIdle) {
		t.Fatalf("status response: %+v", resp)
	}

	resp = f.coordinator.Handle(context.Background(), ipc.Request{Command: "bogus"})
	if resp.OK || resp.Error == "" {
		t.Fatalf("unknown command response: %+v", resp)
	}
}

func TestHandleStatusReportsSpeechProgress(t *testing.T) {
	f := newFixture(t)
	mustTranslate(t, f)
	f.speaker.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- f.coordinator.Speak(context.Background()) }()
	waitForState(t, f.coordinator, fsm.StateSpeaking)
	waitForProgress(t, f.coordinator, 50)

	resp := f.coordinator.Handle(context.Background(), ipc.Request{Command: ipc.CommandStatus})
	if !resp.OK || resp.State != string(fsm.StateSpeaking) {
		t.Fatalf("status response: %+v", resp)
	}
	if resp.Progress != 50 {
		t.Fatalf("status progress = %d, want 50", resp.Progress)
	}

	close(f.speaker.block)
	if err := <-done; err != nil {
		t.Fatalf("Speak: %v", err)
	}
}

func TestHandleStopWhileIdleFails(t *testing.T) {
	f := newFixture(t)
	resp := f.coordinator.Handle(context.Background(), ipc.Request{Command: ipc.CommandStop})
	if resp.OK {
		t.Fatalf("stop from idle must fail: %+v", resp)
	}
}

func TestFullPipelineFromFile(t *testing.T) {
	f := newFixture(t)
	path := writeAudioFile(t, "demo.mp3")

	ctx := context.Background()
	if err := f.coordinator.SubmitFile(path); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}
	t.Cleanup(f.coordinator.Snapshot().Asset.Release)
	if err := f.coordinator.Transcribe(ctx); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if err := f.coordinator.Translate(ctx); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if err := f.coordinator.Speak(ctx); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	snapshot := f.coordinator.Snapshot()
	if snapshot.English != "hello world" || snapshot.Hindi != "नमस्ते दुनिया" || snapshot.Progress != 100 {
		t.Fatalf("snapshot = %+v", snapshot)
	}

	f.listener.mu.Lock()
	states := append([]fsm.State(nil), f.listener.states...)
	f.listener.mu.Unlock()
	want := []fsm.State{
		fsm.StateTranscribing, fsm.StateIdle,
		fsm.StateTranslating, fsm.StateIdle,
		fsm.StateSpeaking, fsm.StateIdle,
	}
	if len(states) != len(want) {
		t.Fatalf("states = %v", states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states[%d] = %s, want %s (full: %v)", i, states[i], want[i], states)
		}
	}
}

func mustSubmit(t *testing.T, f *fixture) {
	t.Helper()
	path := writeAudioFile(t, "demo.mp3")
	if err := f.coordinator.SubmitFile(path); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}
	t.Cleanup(f.coordinator.Snapshot().Asset.Release)
}

func mustTranscribe(t *testing.T, f *fixture) {
	t.Helper()
	mustSubmit(t, f)
	if err := f.coordinator.Transcribe(context.Background()); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}

func mustTranslate(t *testing.T, f *fixture) {
	t.Helper()
	mustTranscribe(t, f)
	if err := f.coordinator.Translate(context.Background()); err != nil {
		t.Fatalf("Translate: %v", err)
	}
}

func waitForProgress(t *testing.T, c *Coordinator, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Snapshot().Progress == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("session never reached progress %d (now %d)", want, c.Snapshot().Progress)
}

func waitForState(t *testing.T, c *Coordinator, want fsm.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("coordinator never reached state %s (now %s)", want, c.State())
}
