package platform

import (
	"context"
	"fmt"
	"os/exec"
)

// speechCommands are tried in order; the first one on PATH wins.
var speechCommands = []string{"say", "espeak-ng", "espeak", "spd-say"}

// CommandSpeaker speaks through a text-to-speech command line tool.
type CommandSpeaker struct {
	path string
	args []string
}

// DetectSpeaker returns a speaker for the first available TTS command, or
// nil if the host has none.
func DetectSpeaker() *CommandSpeaker {
	for _, name := range speechCommands {
		if path, err := exec.LookPath(name); err == nil {
			sp := &CommandSpeaker{path: path}
			if name == "spd-say" {
				// spd-say returns immediately unless told to wait.
				sp.args = []string{"--wait"}
			}
			return sp
		}
	}
	return nil
}

// NewCommandSpeaker uses an explicit command.
func NewCommandSpeaker(path string, args ...string) *CommandSpeaker {
	return &CommandSpeaker{path: path, args: args}
}

// Speak runs the command with text as the final argument.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	args := append(append([]string{}, s.args...), text)
	cmd := exec.CommandContext(ctx, s.path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speech command failed: %w: %s", err, out)
	}
	return nil
}
