// Package media owns validated audio assets and microphone recording.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxAssetSize caps accepted audio uploads at 50 MiB.
const MaxAssetSize = 50 << 20

var (
	// ErrUnsupportedFormat indicates the file extension is outside the allow-list.
	ErrUnsupportedFormat = errors.New("unsupported file format; use .mp3, .wav, .m4a, or .aac")
	// ErrFileTooLarge indicates the file exceeds the 50 MiB limit.
	ErrFileTooLarge = errors.New("file size exceeds 50 MiB limit")
	// ErrPermissionDenied indicates microphone access could not be acquired.
	ErrPermissionDenied = errors.New("failed to access microphone; check permissions")
)

// mimeByExtension is the upload allow-list and its MIME mapping.
var mimeByExtension = map[string]string{
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".m4a": "audio/mp4",
	".aac": "audio/aac",
}

// Asset is one validated audio artifact owned by the session coordinator.
type Asset struct {
	Name string
	MIME string
	Size int64
	Data []byte

	// PreviewPath is a temp copy available for local playback; it is removed
	// when the asset is superseded.
	PreviewPath string
}

// NewAssetFromFile validates and loads an audio file into an Asset.
//
// Validation failures are returned before any bytes are read so a rejected
// file can never clobber the current asset or trigger a network call.
func NewAssetFromFile(path string) (*Asset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := mimeByExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat audio file %q: %w", path, err)
	}
	if info.Size() > MaxAssetSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file %q: %w", path, err)
	}

	asset := &Asset{
		Name: filepath.Base(path),
		MIME: mime,
		Size: int64(len(data)),
		Data: data,
	}
	if err := asset.createPreview(ext); err != nil {
		return nil, err
	}
	return asset, nil
}

// NewAssetFromRecording wraps captured PCM into a WAV asset with a
// timestamped synthetic filename.
func NewAssetFromRecording(pcm []byte, now time.Time) (*Asset, error) {
	wav := EncodePCM16WAV(pcm, 16000, 1)
	asset := &Asset{
		Name: fmt.Sprintf("recording-%d.wav", now.UnixMilli()),
		MIME: "audio/wav",
		Size: int64(len(wav)),
		Data: wav,
	}
	if err := asset.createPreview(".wav"); err != nil {
		return nil, err
	}
	return asset, nil
}

// createPreview writes the asset bytes to a temp file for local playback.
func (a *Asset) createPreview(ext string) error {
	f, err := os.CreateTemp("", "vaani-preview-*"+ext)
	if err != nil {
		return fmt.Errorf("create preview file: %w", err)
	}
	if _, err := f.Write(a.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("write preview file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("close preview file: %w", err)
	}
	a.PreviewPath = f.Name()
	return nil
}

// Release removes the asset's preview file; safe to call more than once.
func (a *Asset) Release() {
	if a == nil || a.PreviewPath == "" {
		return
	}
	_ = os.Remove(a.PreviewPath)
	a.PreviewPath = ""
}

// BaseName returns the asset name with its extension stripped.
func (a *Asset) BaseName() string {
	return strings.TrimSuffix(a.Name, filepath.Ext(a.Name))
}
