package ipc

// Command is a control verb sent to the owning session over the unix socket.
type Command string

const (
	// CommandStatus asks for the current pipeline state and progress.
	CommandStatus Command = "status"
	// CommandToggle stops whatever is in flight, recording or speech.
	CommandToggle Command = "toggle"
	// CommandStop is the explicit form of toggle.
	CommandStop Command = "stop"
	// CommandCancel discards an in-flight recording.
	CommandCancel Command = "cancel"
)

// Known reports whether c is a command this protocol defines.
func (c Command) Known() bool {
	switch c {
	case CommandStatus, CommandToggle, CommandStop, CommandCancel:
		return true
	}
	return false
}

// Request is one newline-delimited JSON control message.
type Request struct {
	Command Command `json:"command"`
}

// Response reports the outcome of a command along with the pipeline state
// and, while speech is playing, its chunk progress percent.
type Response struct {
	OK       bool   `json:"ok"`
	State    string `json:"state,omitempty"`
	Message  string `json:"message,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Error    string `json:"error,omitempty"`
}
