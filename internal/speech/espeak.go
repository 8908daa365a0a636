package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/jfreymuth/pulse"
)

// baseWordsPerMinute is espeak-ng's default speaking rate; the configured
// rate multiplier is applied to it.
const baseWordsPerMinute = 175

// ESpeak synthesizes utterances with the espeak-ng binary and plays the
// resulting WAV through the Pulse server.
type ESpeak struct {
	binary string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewESpeak returns an engine backed by the given espeak-ng binary.
func NewESpeak(binary string) *ESpeak {
	return &ESpeak{binary: binary}
}

// Available reports whether the binary can be found on PATH.
func (e *ESpeak) Available() error {
	if _, err := exec.LookPath(e.binary); err != nil {
		return fmt.Errorf("%w: %s not found", ErrEngineUnavailable, e.binary)
	}
	return nil
}

// Voices lists installed Hindi-capable voices.
func (e *ESpeak) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, e.binary, "--voices=hi").Output()
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	return parseVoiceList(string(out)), nil
}

// parseVoiceList reads espeak-ng --voices table output. Columns are
// Pty, Language, Age/Gender, VoiceName, File; the header row is skipped.
func parseVoiceList(out string) []Voice {
	var voices []Voice
	for i, line := range strings.Split(out, "\n") {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{Lang: fields[1], Name: fields[3]})
	}
	return voices
}

// Speak synthesizes one utterance and blocks until playback finishes.
func (e *ESpeak) Speak(ctx context.Context, u Utterance) error {
	if strings.TrimSpace(u.Text) == "" {
		return ErrNoText
	}
	if err := e.Available(); err != nil {
		return &EngineError{Kind: KindFatal, Err: err}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.cancel = nil
		e.mu.Unlock()
	}()

	wav, err := e.synthesize(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return &EngineError{Kind: KindInterrupted, Err: ctx.Err()}
		}
		return &EngineError{Kind: KindTransient, Err: err}
	}

	if err := playWAV(ctx, wav); err != nil {
		if ctx.Err() != nil {
			return &EngineError{Kind: KindInterrupted, Err: ctx.Err()}
		}
		return &EngineError{Kind: KindTransient, Err: err}
	}
	if ctx.Err() != nil {
		return &EngineError{Kind: KindInterrupted, Err: ctx.Err()}
	}
	return nil
}

// Cancel interrupts the in-flight Speak call, if any.
func (e *ESpeak) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// synthesize runs espeak-ng and captures its WAV output.
func (e *ESpeak) synthesize(ctx context.Context, u Utterance) ([]byte, error) {
	args := []string{"--stdout"}
	if u.Voice != "" {
		args = append(args, "-v", u.Voice)
	} else if u.Lang != "" {
		args = append(args, "-v", u.Lang)
	}
	if u.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(int(baseWordsPerMinute*u.Rate)))
	}
	if u.Pitch > 0 {
		// espeak-ng pitch is 0-99 with 50 as the neutral midpoint.
		args = append(args, "-p", strconv.Itoa(int(50*u.Pitch)))
	}
	if u.Volume > 0 {
		args = append(args, "-a", strconv.Itoa(int(100*u.Volume)))
	}
	args = append(args, u.Text)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stderr = &stderr

	wav, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("espeak-ng: %s", msg)
		}
		return nil, fmt.Errorf("espeak-ng: %w", err)
	}
	return wav, nil
}

// playWAV streams the synthesized PCM to the default Pulse sink and waits
// for it to drain.
func playWAV(ctx context.Context, wav []byte) error {
	sampleRate, channels, samples, err := parseWAV(wav)
	if err != nil {
		return err
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName("vaani"))
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil || cursor >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	opts := []pulse.PlaybackOption{
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackMediaName("vaani speech"),
	}
	if channels == 2 {
		opts = append(opts, pulse.PlaybackStereo)
	} else {
		opts = append(opts, pulse.PlaybackMono)
	}

	stream, err := client.NewPlayback(reader, opts...)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("pulse playback: %w", err)
	}
	return nil
}

// parseWAV validates the canonical 44-byte header and returns the PCM body
// as int16 samples.
func parseWAV(wav []byte) (sampleRate int, channels int, samples []int16, err error) {
	if len(wav) < 44 || !bytes.HasPrefix(wav, []byte("RIFF")) || string(wav[8:12]) != "WAVE" {
		return 0, 0, nil, errors.New("malformed WAV output")
	}
	channels = int(binary.LittleEndian.Uint16(wav[22:24]))
	sampleRate = int(binary.LittleEndian.Uint32(wav[24:28]))
	if sampleRate <= 0 || channels <= 0 {
		return 0, 0, nil, errors.New("malformed WAV header")
	}

	pcm := wav[44:]
	samples = make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return sampleRate, channels, samples, nil
}
