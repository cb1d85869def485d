// Package tts defines the text-to-speech provider contracts: a Synthesizer
// turns text into a playable audio clip, a Player performs blocking
// playback. The voice Speaker combines a primary (remote) synthesizer with a
// local fallback and serializes playback so no two utterances overlap.
package tts

import (
	"context"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
)

var (
	// ErrRecoverable indicates a temporary synthesis failure; the Speaker
	// falls back to the local voice.
	ErrRecoverable = ai.ErrRecoverable

	// ErrFatal indicates a permanent synthesis failure.
	ErrFatal = ai.ErrFatal

	// ErrNoVoices indicates the provider has no voices available on this
	// platform; the Speaker selects the fallback voice instead.
	ErrNoVoices = ai.NewFatalError(nil, "no synthesis voices available")
)

// SynthesizeRequest contains parameters for text-to-speech synthesis.
type SynthesizeRequest struct {
	Text     string
	Voice    string
	Language string
	Speed    float32
}

// Clip is one synthesized utterance of PCM audio.
type Clip struct {
	PCM    []byte
	Format audio.Format
}

// Empty reports whether the clip carries no audio.
func (c Clip) Empty() bool {
	return len(c.PCM) == 0
}

// Synthesizer converts text to a playable clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesizeRequest) (Clip, error)
}

// Player performs audio playback. Play blocks until the clip has been fully
// rendered; the Speaker relies on this to enforce non-overlapping output.
type Player interface {
	Play(ctx context.Context, clip Clip) error
}
