// Package transcribe submits audio to the remote speech-to-text job API and
// polls it to completion.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/vaani-cli/vaani/internal/config"
)

// Client talks to the transcription job API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a Client from the transcribe config section.
func NewClient(cfg config.TranscribeConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type submitRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
}

type submitResponse struct {
	ID string `json:"id"`
}

// Status values reported by the job API.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// JobStatus is one poll result for a submitted job.
type JobStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Upload sends the audio bytes as a multipart form and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, data []byte) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("audio", "audio")
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	defer resp.Body.Close()

	reply, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UploadError{Status: resp.StatusCode, Body: strings.TrimSpace(string(reply))}
	}

	var parsed uploadResponse
	if err := json.Unmarshal(reply, &parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if parsed.UploadURL == "" {
		return "", &UploadError{Status: resp.StatusCode, Body: "missing upload_url"}
	}
	return parsed.UploadURL, nil
}

// Submit creates a transcription job for a previously uploaded audio URL.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(submitRequest{AudioURL: audioURL, SpeakerLabels: true})
	if err != nil {
		return "", fmt.Errorf("encode transcription request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit transcription job: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &SubmitError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed submitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	if parsed.ID == "" {
		return "", &SubmitError{Status: resp.StatusCode, Body: "missing job id"}
	}
	return parsed.ID, nil
}

// Status fetches the current state of a transcription job.
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return JobStatus{}, &PollError{Err: err}
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return JobStatus{}, &PollError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return JobStatus{}, &PollError{Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return JobStatus{}, &PollError{Err: fmt.Errorf("decode status: %w", err)}
	}
	return status, nil
}
