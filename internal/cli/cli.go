package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandConvert Command = "convert"
	CommandToggle  Command = "toggle"
	CommandStop    Command = "stop"
	CommandCancel  Command = "cancel"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandConvert: {},
	CommandToggle:  {},
	CommandStop:    {},
	CommandCancel:  {},
	CommandStatus:  {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	AudioPath  string
	Voice      string
	Rate       float64
	Volume     float64
	OutDir     string
	NoSpeak    bool
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true, Rate: -1, Volume: -1}
	sawCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--no-speak":
			parsed.NoSpeak = true
		case "--config":
			value, next, err := flagValue(args, i, arg)
			if err != nil {
				return Parsed{}, err
			}
			parsed.ConfigPath = value
			i = next
		case "--voice":
			value, next, err := flagValue(args, i, arg)
			if err != nil {
				return Parsed{}, err
			}
			parsed.Voice = value
			i = next
		case "--out":
			value, next, err := flagValue(args, i, arg)
			if err != nil {
				return Parsed{}, err
			}
			parsed.OutDir = value
			i = next
		case "--rate":
			value, next, err := flagValue(args, i, arg)
			if err != nil {
				return Parsed{}, err
			}
			rate, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Parsed{}, fmt.Errorf("--rate requires a number, got %q", value)
			}
			parsed.Rate = rate
			i = next
		case "--volume":
			value, next, err := flagValue(args, i, arg)
			if err != nil {
				return Parsed{}, err
			}
			volume, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Parsed{}, fmt.Errorf("--volume requires a number, got %q", value)
			}
			parsed.Volume = volume
			i = next
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			if sawCommand {
				if parsed.Command == CommandConvert && parsed.AudioPath == "" {
					parsed.AudioPath = arg
					continue
				}
				return Parsed{}, fmt.Errorf("unexpected argument %q", arg)
			}

			cmd := Command(arg)
			if cmd == "record" {
				// record is a friendlier alias for toggle.
				cmd = CommandToggle
			}
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			sawCommand = true
		}
	}

	if parsed.Command == CommandConvert && parsed.AudioPath == "" {
		return Parsed{}, errors.New("convert requires an audio file argument")
	}

	return parsed, nil
}

// flagValue extracts the value following a flag that requires one.
func flagValue(args []string, i int, flag string) (string, int, error) {
	if i+1 >= len(args) {
		return "", i, fmt.Errorf("%s requires a value", flag)
	}
	return args[i+1], i + 1, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [flags] <command>

Commands:
  convert FILE  Transcribe FILE, translate to Hindi, speak, and export
  toggle        Start microphone recording or stop+convert when recording
  record        Alias for toggle
  stop          Stop active recording (or halt speech playback)
  cancel        Cancel active recording and discard audio
  status        Print current pipeline state
  devices       List available input devices
  doctor        Run configuration and environment checks
  version       Print version information
  help          Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/vaani/config.json)
  --voice ID      Pin a specific synthesis voice
  --rate X        Speech rate multiplier, 0.5-2.0 (default 0.8)
  --volume X      Speech volume, 0.0-1.0 (default 1.0)
  --out DIR       Directory for the exported bilingual transcript
  --no-speak      Skip speech playback, still export the transcript
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
