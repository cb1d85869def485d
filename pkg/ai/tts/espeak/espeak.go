// Package espeak implements the tts.Synthesizer interface with the local
// espeak-ng binary. It is the fallback voice used when the remote synthesis
// service fails or reports no voices.
package espeak

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/tts"
	"github.com/danihdz11/mirror-voice-go/pkg/audio/wav"
)

// Synthesizer shells out to espeak-ng and captures its WAV output.
type Synthesizer struct {
	binary string
	logger *slog.Logger
}

// New creates an espeak-ng synthesizer. binary may be empty to use the
// default name resolved from PATH.
func New(binary string, logger *slog.Logger) *Synthesizer {
	if binary == "" {
		binary = "espeak-ng"
	}
	return &Synthesizer{binary: binary, logger: logger}
}

// Available reports whether the espeak-ng binary can be found.
func (s *Synthesizer) Available() bool {
	_, err := exec.LookPath(s.binary)
	return err == nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, req tts.SynthesizeRequest) (tts.Clip, error) {
	// espeak-ng voices are bare lowercase language codes ("es", not "es-MX").
	voice := "es"
	if req.Language != "" {
		voice = strings.ToLower(req.Language)
		if i := strings.IndexByte(voice, '-'); i > 0 {
			voice = voice[:i]
		}
	}

	// --stdout emits a WAV stream; stdin avoids shell quoting of the text.
	cmd := exec.CommandContext(ctx, s.binary, "-v", voice, "--stdout", "--stdin")
	cmd.Stdin = strings.NewReader(req.Text)

	out, err := cmd.Output()
	if err != nil {
		return tts.Clip{}, ai.NewFatalError(err, fmt.Sprintf("espeak-ng failed: %v", err))
	}

	pcm, format, err := wav.Decode(out)
	if err != nil {
		return tts.Clip{}, ai.NewFatalError(err, "espeak-ng produced unreadable audio")
	}

	s.logger.Debug("Local synthesis complete",
		slog.Int("text_len", len(req.Text)),
		slog.Int("pcm_bytes", len(pcm)))

	return tts.Clip{PCM: pcm, Format: format}, nil
}
