package speech

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// CommandRecognizer captures one utterance by running an external
// speech-to-text command (STT_COMMAND) that records from the microphone
// and prints the transcript on stdout.
type CommandRecognizer struct {
	argv []string
}

// NewRecognizer probes the configured capture command. ok is false when
// no command is configured or its binary is missing — voice input is
// then absent as a feature.
func NewRecognizer(command string) (*CommandRecognizer, bool) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, false
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, false
	}
	return &CommandRecognizer{argv: argv}, true
}

// Listen runs the capture command once and returns the first stdout line.
func (r *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(err, "speech capture")
	}

	transcript, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(transcript), nil
}
