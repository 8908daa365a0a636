package transcribe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vaani-cli/vaani/internal/config"
)

// Phase tracks where a transcription job is in its lifecycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseSubmitted Phase = "submitted"
	PhasePolling   Phase = "polling"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// phaseOrder is the legal lifecycle of a job. Jobs are single-use; a
// terminal phase has no successors.
var phaseOrder = map[Phase][]Phase{
	PhaseIdle:      {PhaseUploading},
	PhaseUploading: {PhaseSubmitted, PhaseFailed},
	PhaseSubmitted: {PhasePolling, PhaseFailed},
	PhasePolling:   {PhaseCompleted, PhaseFailed},
}

// Notifier receives human-readable progress messages as the job advances.
type Notifier func(message string)

// Job runs one audio payload through upload, submit, and poll to completion.
type Job struct {
	client   *Client
	interval time.Duration
	deadline time.Duration
	attempts int
	notify   Notifier

	phase Phase
}

// NewJob wires a Job from config. A nil notifier is replaced with a no-op.
func NewJob(cfg config.TranscribeConfig, notify Notifier) *Job {
	if notify == nil {
		notify = func(string) {}
	}
	return &Job{
		client:   NewClient(cfg),
		interval: cfg.PollInterval,
		deadline: cfg.PollDeadline,
		attempts: cfg.MaxPollAttempts,
		notify:   notify,
		phase:    PhaseIdle,
	}
}

// Phase returns the last phase the job reached.
func (j *Job) Phase() Phase {
	return j.phase
}

// advance moves the job to the next phase per the lifecycle table.
func (j *Job) advance(next Phase) error {
	for _, allowed := range phaseOrder[j.phase] {
		if allowed == next {
			j.phase = next
			return nil
		}
	}
	return fmt.Errorf("invalid job phase transition %s -> %s", j.phase, next)
}

// Run executes the full job lifecycle and returns the transcript text.
//
// Polling is bounded by both the attempt cap and the wall-clock deadline;
// whichever trips first yields ErrPollTimeout. Context cancellation aborts
// immediately at any phase.
func (j *Job) Run(ctx context.Context, audio []byte) (string, error) {
	if err := j.advance(PhaseUploading); err != nil {
		return "", err
	}
	j.notify("Uploading audio file…")
	audioURL, err := j.client.Upload(ctx, audio)
	if err != nil {
		_ = j.advance(PhaseFailed)
		return "", err
	}

	_ = j.advance(PhaseSubmitted)
	j.notify("Starting transcription…")
	jobID, err := j.client.Submit(ctx, audioURL)
	if err != nil {
		_ = j.advance(PhaseFailed)
		return "", err
	}

	_ = j.advance(PhasePolling)
	j.notify("Processing audio… this may take a few minutes.")
	text, err := j.poll(ctx, jobID)
	if err != nil {
		_ = j.advance(PhaseFailed)
		return "", err
	}

	_ = j.advance(PhaseCompleted)
	return text, nil
}

// poll checks job status at a fixed interval until a terminal state or bound.
func (j *Job) poll(ctx context.Context, jobID string) (string, error) {
	started := time.Now()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		status, err := j.client.Status(ctx, jobID)
		if err != nil {
			return "", err
		}

		switch status.Status {
		case StatusCompleted:
			return status.Text, nil
		case StatusError:
			return "", &JobError{Reason: status.Error}
		case StatusQueued, StatusProcessing:
			// keep waiting
		default:
			return "", &PollError{Err: errors.New("unknown job status " + status.Status)}
		}

		if attempt >= j.attempts || time.Since(started)+j.interval > j.deadline {
			return "", ErrPollTimeout
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
