package voice

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/stt"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
)

// TranscriptEvent is one recognized utterance, delivered to the controller.
// Route is the view path that was active when the segment was captured, so
// a transcript that arrives after a navigation can be recognized as stale.
type TranscriptEvent struct {
	Text       string
	Confidence float64
	Route      string
}

// Capture runs the windowed microphone loop: record a fixed window, hand the
// segment to the transcriber in the background, and immediately reopen the
// window. Segments shorter than the configured minimum are treated as
// silence, and a new segment is discarded while a previous one is still
// being transcribed.
type Capture struct {
	mic     audio.Microphone
	stt     stt.Transcriber
	state   *SessionState
	clock   clock.Clock
	cfg     Config
	routeFn func() string
	handler func(TranscriptEvent)
	log     *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	restart context.Context
}

// NewCapture wires a capture loop. routeFn reports the active view path and
// handler receives every non-empty transcript.
func NewCapture(mic audio.Microphone, transcriber stt.Transcriber, state *SessionState, clk clock.Clock, cfg Config, routeFn func() string, handler func(TranscriptEvent), log *slog.Logger) *Capture {
	if log == nil {
		log = slog.Default()
	}
	return &Capture{
		mic:     mic,
		stt:     transcriber,
		state:   state,
		clock:   clk,
		cfg:     cfg.withDefaults(),
		routeFn: routeFn,
		handler: handler,
		log:     log,
	}
}

// Start opens the microphone and begins the capture loop. While speech owns
// the audio turn or a transcription is still in flight the start is deferred
// instead of dropped: the flag is consumed when the utterance or round-trip
// finishes. Starting while muted, face-scanning, or already listening is a
// no-op.
func (c *Capture) Start(ctx context.Context) error {
	// A deferred start fires from the speaker or the transcription goroutine,
	// long after the triggering call returned; it reuses this context.
	c.mu.Lock()
	c.restart = ctx
	c.mu.Unlock()

	if c.state.IsMuted() {
		c.log.Debug("start listening ignored, session muted")
		return nil
	}
	if c.state.IsFaceActive() {
		// Face completion drives its own resume; a deferred start here
		// would double-arm.
		c.log.Debug("face recognition owns the audio turn, ignoring listen start")
		return nil
	}
	if c.state.IsSpeaking() {
		c.log.Debug("speech owns the audio turn, deferring listen start")
		c.state.SetPendingStart(true)
		return nil
	}
	if c.state.IsListening() {
		return nil
	}
	if c.state.IsProcessing() {
		// The loop is stopped but a transcription is still in flight; its
		// goroutine consumes the flag when the round-trip ends.
		c.log.Debug("transcription in flight, deferring listen start")
		c.state.SetPendingStart(true)
		return nil
	}
	if !c.state.AcquireTurn(TurnListening) {
		c.state.SetPendingStart(true)
		return nil
	}

	if err := c.mic.Open(ctx); err != nil {
		c.state.ReleaseTurn(TurnListening)
		if ai.IsFatal(err) {
			// Permission denied or no device: retrying cannot help.
			c.log.Error("microphone unavailable", "error", err)
			return err
		}
		c.log.Warn("failed to open microphone", "error", err)
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.log.Info("listening started", "window", c.cfg.Window)
	go c.loop(loopCtx, done)
	return nil
}

// Stop ends the capture loop and releases the audio turn. It is idempotent.
func (c *Capture) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if err := c.mic.Close(); err != nil {
		c.log.Warn("failed to close microphone", "error", err)
	}
	c.state.ReleaseTurn(TurnListening)
	c.log.Info("listening stopped")
}

func (c *Capture) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		start := c.clock.Now()

		seg, err := c.mic.Record(ctx, c.cfg.Window)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if ai.IsFatal(err) {
				c.log.Error("recording failed, stopping capture", "error", err)
				go c.Stop()
				return
			}
			c.log.Warn("recording window failed", "error", err)
		} else {
			c.dispatch(ctx, seg)
		}

		// Pace the loop to one window per cycle even when the device
		// returns early.
		if remaining := c.cfg.Window - c.clock.Since(start); remaining > 0 {
			timer := c.clock.Timer(remaining)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}
}

func (c *Capture) dispatch(ctx context.Context, seg audio.Segment) {
	if len(seg.Data) < c.cfg.MinSegmentBytes {
		if !seg.Empty() {
			c.log.Debug("segment below silence threshold, discarding", "bytes", len(seg.Data))
		}
		return
	}
	if c.state.IsProcessing() {
		c.log.Debug("transcription in flight, discarding segment", "bytes", len(seg.Data))
		return
	}

	route := c.routeFn()
	c.state.SetProcessing(true)
	go c.process(ctx, seg, route)
}

func (c *Capture) process(ctx context.Context, seg audio.Segment, route string) {
	// A start deferred while this round-trip was in flight must fire on
	// every exit path, or nothing would be listening afterwards.
	defer func() {
		if c.state.ConsumePendingStart() {
			c.mu.Lock()
			restart := c.restart
			c.mu.Unlock()
			if restart == nil {
				restart = context.Background()
			}
			if err := c.Start(restart); err != nil {
				c.log.Warn("failed to resume listening after transcription", "error", err)
			}
		}
	}()

	res, err := c.stt.Transcribe(ctx, seg, c.cfg.Language)

	// Processing covers the transcription round-trip only; the handler may
	// restart listening and must not see itself as busy.
	c.state.SetProcessing(false)

	if err != nil {
		if ai.IsFatal(err) {
			c.log.Error("transcription failed", "error", err)
		} else {
			c.log.Warn("transcription failed, dropping segment", "error", err)
		}
		return
	}

	text := strings.TrimSpace(res.Transcript)
	if text == "" {
		return
	}

	c.log.Info("transcript received", "text", text, "confidence", res.Confidence, "route", route)
	c.handler(TranscriptEvent{Text: text, Confidence: res.Confidence, Route: route})
}
