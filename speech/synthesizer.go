package speech

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// voiceHints are matched case-insensitively against engine-reported
// voice names; the first voice containing a hint is preferred.
var voiceHints = []string{"female", "woman", "zira", "hazel"}

// CommandSynthesizer speaks through a local text-to-speech binary
// ("say" on macOS, espeak-ng/espeak elsewhere). Playback is
// fire-and-forget: the process is started and reaped in the background.
type CommandSynthesizer struct {
	binary string
	voice  string
}

// NewSynthesizer probes for a text-to-speech engine. ok is false when
// none is installed — callers treat that as voice output being absent,
// not as an error.
func NewSynthesizer() (*CommandSynthesizer, bool) {
	binary, ok := findEngine()
	if !ok {
		return nil, false
	}
	s := &CommandSynthesizer{binary: binary}
	s.voice = pickVoice(binary)
	return s, true
}

func findEngine() (string, bool) {
	var candidates []string
	if runtime.GOOS == "darwin" {
		candidates = []string{"say"}
	} else {
		candidates = []string{"espeak-ng", "espeak"}
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// pickVoice asks the engine for its voice list and returns the first
// one matching a hint, or empty for the engine default.
func pickVoice(binary string) string {
	var out []byte
	var err error
	if strings.HasSuffix(binary, "say") {
		out, err = exec.Command(binary, "-v", "?").Output()
	} else {
		out, err = exec.Command(binary, "--voices=en").Output()
	}
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(string(out), "\n") {
		lower := strings.ToLower(line)
		for _, hint := range voiceHints {
			if strings.Contains(lower, hint) {
				fields := strings.Fields(line)
				if len(fields) > 0 {
					if strings.HasSuffix(binary, "say") {
						return fields[0]
					}
					// espeak voice files are listed in the 4th column
					if len(fields) >= 4 {
						return fields[3]
					}
				}
			}
		}
	}
	return ""
}

func (s *CommandSynthesizer) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	var args []string
	if strings.HasSuffix(s.binary, "say") {
		args = []string{"-r", "160"}
		if s.voice != "" {
			args = append(args, "-v", s.voice)
		}
	} else {
		args = []string{"-s", "150", "-p", "60"}
		if s.voice != "" {
			args = append(args, "-v", s.voice)
		}
	}
	args = append(args, text)

	cmd := exec.Command(s.binary, args...)
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("binary", s.binary).Msg("speech playback failed to start")
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Msg("speech playback exited")
		}
	}()
}
