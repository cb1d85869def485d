// Package fake provides scripted tts implementations for testing. The
// Player records play intervals so tests can assert that no two utterances
// overlap in wall-clock output.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/tts"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
)

// Synthesizer returns a short clip for any text. When FailAll is set every
// call returns a recoverable error, exercising the fallback path.
type Synthesizer struct {
	mu       sync.Mutex
	FailAll  bool
	NoVoices bool
	Texts    []string // texts synthesized, in order
}

// NewSynthesizer creates a fake synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

func (s *Synthesizer) Synthesize(ctx context.Context, req tts.SynthesizeRequest) (tts.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NoVoices {
		return tts.Clip{}, tts.ErrNoVoices
	}
	if s.FailAll {
		return tts.Clip{}, ai.NewRecoverableError(nil, "fake synthesis service unavailable")
	}
	s.Texts = append(s.Texts, req.Text)
	// One byte of PCM per rune keeps clip size proportional to text length.
	return tts.Clip{
		PCM:    make([]byte, len(req.Text)),
		Format: audio.Format{SampleRate: 24000, Channels: 1, BitsPerSample: 16},
	}, nil
}

// SynthesizedTexts returns a copy of the texts synthesized so far.
func (s *Synthesizer) SynthesizedTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Texts))
	copy(out, s.Texts)
	return out
}

// Interval is one recorded playback window.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Player records the wall-clock interval of every Play call. PlayDelay, when
// set, makes playback take real time so overlap violations become visible.
type Player struct {
	mu        sync.Mutex
	PlayDelay time.Duration
	intervals []Interval
}

// NewPlayer creates a fake player.
func NewPlayer() *Player {
	return &Player{}
}

func (p *Player) Play(ctx context.Context, clip tts.Clip) error {
	start := time.Now()
	if p.PlayDelay > 0 {
		select {
		case <-time.After(p.PlayDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	p.intervals = append(p.intervals, Interval{Start: start, End: time.Now()})
	p.mu.Unlock()
	return nil
}

// Intervals returns a copy of the recorded playback intervals.
func (p *Player) Intervals() []Interval {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Interval, len(p.intervals))
	copy(out, p.intervals)
	return out
}

// Overlapping reports whether any two recorded intervals overlap.
func (p *Player) Overlapping() bool {
	intervals := p.Intervals()
	for i := 1; i < len(intervals); i++ {
		if intervals[i].Start.Before(intervals[i-1].End) {
			return true
		}
	}
	return false
}
