// Package app wires configuration, IPC ownership, and the pipeline stages
// behind the vaani command surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/vaani-cli/vaani/internal/audio"
	"github.com/vaani-cli/vaani/internal/cli"
	"github.com/vaani-cli/vaani/internal/config"
	"github.com/vaani-cli/vaani/internal/doctor"
	"github.com/vaani-cli/vaani/internal/export"
	"github.com/vaani-cli/vaani/internal/ipc"
	"github.com/vaani-cli/vaani/internal/logging"
	"github.com/vaani-cli/vaani/internal/media"
	"github.com/vaani-cli/vaani/internal/session"
	"github.com/vaani-cli/vaani/internal/speech"
	"github.com/vaani-cli/vaani/internal/status"
	"github.com/vaani-cli/vaani/internal/transcribe"
	"github.com/vaani-cli/vaani/internal/translate"
	"github.com/vaani-cli/vaani/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("vaani"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("vaani"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}

	cfg := cfgLoaded.Config
	if err := applyFlags(&cfg, parsed); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}

	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(config.Loaded{Path: cfgLoaded.Path, Config: cfg, Exists: cfgLoaded.Exists})
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.CommandStop)
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.CommandCancel)
	case cli.CommandConvert:
		return r.commandConvert(ctx, cfg, logger, parsed)
	case cli.CommandToggle:
		return r.commandToggle(ctx, cfg, logger, parsed)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// applyFlags overlays command-line overrides onto the loaded config and
// re-validates the result.
func applyFlags(cfg *config.Config, parsed cli.Parsed) error {
	if parsed.Voice != "" {
		cfg.Speech.Voice = parsed.Voice
	}
	if parsed.Rate >= 0 {
		cfg.Speech.Rate = parsed.Rate
	}
	if parsed.Volume >= 0 {
		cfg.Speech.Volume = parsed.Volume
	}
	if parsed.OutDir != "" {
		cfg.Export.Dir = parsed.OutDir
	}
	_, err := config.Validate(*cfg)
	return err
}

// buildCoordinator assembles the pipeline stages around one coordinator.
func (r Runner) buildCoordinator(cfg config.Config, logger *slog.Logger, reporter *status.Reporter) *session.Coordinator {
	transcriber := jobTranscriber{cfg: cfg.Transcribe, notify: reporter.OnStatus}
	translator := translate.New(cfg.Translate)
	queue := speech.NewQueue(speech.NewESpeak(cfg.Speech.Binary), cfg.Speech)
	record := func(ctx context.Context) (session.Recorder, error) {
		return media.StartRecording(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	}
	return session.NewCoordinator(logger, transcriber, translator, queue, record, reporter, cfg.Export.Dir)
}

// jobTranscriber runs each payload through a fresh transcription job.
type jobTranscriber struct {
	cfg    config.TranscribeConfig
	notify transcribe.Notifier
}

func (j jobTranscriber) Run(ctx context.Context, audio []byte) (string, error) {
	return transcribe.NewJob(j.cfg, j.notify).Run(ctx, audio)
}

func (r Runner) commandConvert(ctx context.Context, cfg config.Config, logger *slog.Logger, parsed cli.Parsed) int {
	reporter := status.NewReporter(r.Stderr)
	coordinator := r.buildCoordinator(cfg, logger, reporter)

	// Coordinator failures are already rendered by the status reporter.
	if err := coordinator.SubmitFile(parsed.AudioPath); err != nil {
		return 1
	}
	defer coordinator.Snapshot().Asset.Release()

	return r.runPipeline(ctx, coordinator, cfg.Export.Dir, parsed.NoSpeak, logger)
}

func (r Runner) commandToggle(ctx context.Context, cfg config.Config, logger *slog.Logger, parsed cli.Parsed) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandToggle)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		return 0
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, ipc.CommandToggle)
			if forwardErr != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", forwardErr)
				return 1
			}
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	reporter := status.NewReporter(r.Stderr)
	coordinator := r.buildCoordinator(cfg, logger, reporter)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, coordinator)
	}()
	shutdown := func() int {
		serverCancel()
		if serverErr := <-serverErrCh; serverErr != nil {
			fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
			return 1
		}
		return 0
	}

	result := coordinator.RunRecording(ctx)
	logRecordResult(logger, result)

	if cfg.Debug.EnableAudioDump && result.Asset != nil {
		dumpCapturedAudio(logger, result.Asset)
	}

	if result.Cancelled {
		fmt.Fprintln(r.Stdout, "cancelled")
		return shutdown()
	}
	if result.Err != nil {
		shutdown()
		return 1
	}
	defer coordinator.Snapshot().Asset.Release()

	// Keep serving IPC while the pipeline runs so stop still interrupts speech.
	code := r.runPipeline(ctx, coordinator, cfg.Export.Dir, parsed.NoSpeak, logger)
	if serverCode := shutdown(); serverCode != 0 {
		return serverCode
	}
	return code
}

// runPipeline drives a loaded asset through transcription, translation,
// speech, and export. A translation failure still exports the English
// transcript with a placeholder Hindi section.
func (r Runner) runPipeline(ctx context.Context, coordinator *session.Coordinator, exportDir string, noSpeak bool, logger *slog.Logger) int {
	if err := coordinator.Transcribe(ctx); err != nil {
		return 1
	}

	failed := false
	if err := coordinator.Translate(ctx); err != nil {
		failed = true
	}

	snapshot := coordinator.Snapshot()
	if !noSpeak && snapshot.HasTranslation() {
		if err := coordinator.Speak(ctx); err != nil {
			failed = true
		}
	}

	snapshot = coordinator.Snapshot()
	path, err := export.Write(exportDir, export.Document{
		SourceName: snapshot.Asset.Name,
		English:    snapshot.English,
		Hindi:      snapshot.Hindi,
		When:       time.Now(),
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("transcript exported", "path", path, "english_length", len(snapshot.English), "hindi_length", len(snapshot.Hindi))

	if text := strings.TrimSpace(snapshot.Hindi); text != "" {
		fmt.Fprintln(r.Stdout, text)
	} else if text := strings.TrimSpace(snapshot.English); text != "" {
		fmt.Fprintln(r.Stdout, text)
	}
	fmt.Fprintf(r.Stderr, "saved transcript to %s\n", path)

	if failed {
		return 1
	}
	return 0
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
			return 0
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command ipc.Command) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active vaani session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// dumpCapturedAudio keeps a copy of the raw recording under the state
// directory for debugging bad captures.
func dumpCapturedAudio(logger *slog.Logger, asset *media.Asset) {
	dir, err := logging.Dir()
	if err == nil {
		dir = filepath.Join(dir, "dumps")
		err = os.MkdirAll(dir, 0o700)
	}
	var path string
	if err == nil {
		path = filepath.Join(dir, asset.Name)
		err = os.WriteFile(path, asset.Data, 0o600)
	}
	if err != nil {
		logger.Warn("audio dump failed", "error", err.Error())
		return
	}
	logger.Info("audio dump written", "path", path, "bytes", len(asset.Data))
}

func logRecordResult(logger *slog.Logger, result session.RecordResult) {
	fields := []any{
		"state", result.State,
		"cancelled", result.Cancelled,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"elapsed_s", result.Elapsed,
		"bytes_captured", result.BytesCaptured,
	}
	if result.Err != nil {
		logger.Error("recording failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("recording complete", fields...)
}

func tryForward(ctx context.Context, socketPath string, command ipc.Command) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
