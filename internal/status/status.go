// Package status renders pipeline lifecycle events as terminal output.
package status

import (
	"fmt"
	"io"
	"sync"

	"github.com/vaani-cli/vaani/internal/fsm"
)

// Reporter writes human-readable progress lines for a running pipeline.
// It implements session.Listener.
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewReporter writes status lines to out, typically stderr so that piped
// stdout stays clean for transcript text.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) OnState(state fsm.State) {
	if state == fsm.StateIdle {
		return
	}
	r.printf("[%s]", state)
}

func (r *Reporter) OnStatus(message string) {
	r.printf("%s", message)
}

// Transcript and translation text are printed by the command itself, not
// interleaved with progress lines.
func (r *Reporter) OnTranscription(string, string) {}

func (r *Reporter) OnTranslation(string) {}

func (r *Reporter) OnProgress(percent int) {
	r.printf("Speaking… %d%%", percent)
}

func (r *Reporter) OnError(err error) {
	r.printf("error: %v", err)
}

func (r *Reporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format+"\n", args...)
}
