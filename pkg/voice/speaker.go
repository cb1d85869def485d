package voice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/danihdz11/mirror-voice-go/pkg/ai/tts"
)

// Speaker voices text through the synthesizer, serialized so utterances
// never overlap. Speaking takes the audio turn from listening; when an
// utterance completes, a start that was deferred while speech held the turn
// is consumed exactly once and listening resumes.
type Speaker struct {
	primary  tts.Synthesizer
	fallback tts.Synthesizer // optional local backend used when primary fails
	player   tts.Player
	capture  *Capture
	state    *SessionState
	clock    clock.Clock
	cfg      Config
	log      *slog.Logger

	mu sync.Mutex
}

// NewSpeaker wires a speaker. fallback may be nil.
func NewSpeaker(primary, fallback tts.Synthesizer, player tts.Player, capture *Capture, state *SessionState, clk clock.Clock, cfg Config, log *slog.Logger) *Speaker {
	if log == nil {
		log = slog.Default()
	}
	return &Speaker{
		primary:  primary,
		fallback: fallback,
		player:   player,
		capture:  capture,
		state:    state,
		clock:    clk,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// Speak voices text and blocks until playback (or its silent stand-in)
// completes. Empty text completes immediately. Utterances are serialized:
// a second Speak waits for the first to finish.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Speech preempts listening. A pending start left over from before this
	// utterance is stale; only starts deferred while we hold the turn are
	// honored on completion.
	s.capture.Stop()
	s.state.SetPendingStart(false)

	if !s.state.AcquireTurn(TurnSpeaking) {
		s.log.Warn("audio turn busy, skipping utterance", "owner", s.state.Owner().String())
		return nil
	}

	defer func() {
		s.state.ReleaseTurn(TurnSpeaking)
		if s.state.ConsumeStartFlags() {
			if err := s.capture.Start(ctx); err != nil {
				s.log.Warn("failed to resume listening after speech", "error", err)
			}
		}
	}()

	s.log.Info("speaking", "chars", len(text))

	clip, err := s.synthesize(ctx, text)
	if err != nil {
		// Both backends failed. Hold the turn for the estimated duration so
		// downstream timing behaves as if the utterance had been voiced.
		s.log.Warn("synthesis unavailable, simulating utterance", "error", err)
		s.wait(ctx, estimateSpeechDuration(text))
		return nil
	}

	if err := s.player.Play(ctx, clip); err != nil {
		s.log.Warn("playback failed", "error", err)
	}
	return nil
}

func (s *Speaker) synthesize(ctx context.Context, text string) (tts.Clip, error) {
	req := tts.SynthesizeRequest{Text: text, Language: s.cfg.Language}

	clip, err := s.primary.Synthesize(ctx, req)
	if err == nil {
		return clip, nil
	}
	if s.fallback == nil {
		return tts.Clip{}, err
	}

	if errors.Is(err, tts.ErrNoVoices) {
		s.log.Info("no voices on primary synthesizer, using fallback")
	} else {
		s.log.Warn("primary synthesis failed, using fallback", "error", err)
	}
	return s.fallback.Synthesize(ctx, req)
}

func (s *Speaker) wait(ctx context.Context, d time.Duration) {
	timer := s.clock.Timer(d)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
	}
}

// estimateSpeechDuration approximates how long an utterance would take to
// voice, 350ms per word with a 1.2s floor.
func estimateSpeechDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	d := time.Duration(words) * 350 * time.Millisecond
	if d < 1200*time.Millisecond {
		d = 1200 * time.Millisecond
	}
	return d
}
