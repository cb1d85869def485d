// Package aplay plays synthesized clips through an ALSA playback binary,
// feeding raw PCM on stdin. It is the production counterpart of the fake
// player used in tests.
package aplay

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/tts"
)

// DefaultBinary is the ALSA playback tool.
const DefaultBinary = "aplay"

// Player implements tts.Player by spawning one playback process per clip.
type Player struct {
	binary string
}

// New creates a player using the given binary (empty for the default).
func New(binary string) *Player {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Player{binary: binary}
}

// Available reports whether the playback binary is on PATH.
func (p *Player) Available() bool {
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// Play blocks until the clip has been played to the device.
func (p *Player) Play(ctx context.Context, clip tts.Clip) error {
	if clip.Empty() {
		return nil
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-f", "S16_LE",
		"-r", strconv.Itoa(clip.Format.SampleRate),
		"-c", strconv.Itoa(clip.Format.Channels),
		"-t", "raw",
		"-q",
	)
	cmd.Stdin = bytes.NewReader(clip.PCM)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ai.NewRecoverableError(err, fmt.Sprintf("playback via %s failed", p.binary))
	}
	return nil
}
