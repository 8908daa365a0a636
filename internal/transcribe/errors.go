package transcribe

import (
	"errors"
	"fmt"
)

// ErrPollTimeout indicates the remote job did not settle within the
// configured attempt and deadline bounds. It is distinct from JobError: the
// job may still be running remotely, we simply stopped waiting.
var ErrPollTimeout = errors.New("transcription timed out waiting for the remote job")

// ErrNoAPIKey indicates no transcription API key is configured.
var ErrNoAPIKey = errors.New("transcription API key is not configured; set VAANI_API_KEY")

// UploadError reports a failed media upload.
type UploadError struct {
	Status int
	Body   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed with status %d: %s", e.Status, e.Body)
}

// SubmitError reports a failed job submission.
type SubmitError struct {
	Status int
	Body   string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("transcription request failed with status %d: %s", e.Status, e.Body)
}

// PollError reports a transport or decode failure while checking job status.
type PollError struct {
	Err error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll transcription status: %v", e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// JobError reports that the remote service itself marked the job failed.
type JobError struct {
	Reason string
}

func (e *JobError) Error() string {
	if e.Reason == "" {
		return "transcription failed"
	}
	return "transcription failed: " + e.Reason
}
