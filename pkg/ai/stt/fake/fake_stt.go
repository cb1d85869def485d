// Package fake provides a scripted Transcriber for testing.
package fake

import (
	"context"
	"sync"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/stt"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
)

// Step is one scripted transcription outcome.
type Step struct {
	Result stt.Result
	Err    error
}

// Transcriber returns scripted results in order. Once the script is
// exhausted it returns empty results, mimicking silence.
type Transcriber struct {
	mu     sync.Mutex
	script []Step
	next   int
	calls  int
}

// New creates a fake transcriber with the given script.
func New(steps ...Step) *Transcriber {
	return &Transcriber{script: steps}
}

// Say builds a script step with the given transcript at full confidence.
func Say(text string) Step {
	return Step{Result: stt.Result{Transcript: text, Confidence: 1.0, Language: "es"}}
}

// SayWithConfidence builds a script step with an explicit confidence.
func SayWithConfidence(text string, confidence float64) Step {
	return Step{Result: stt.Result{Transcript: text, Confidence: confidence, Language: "es"}}
}

// Fail builds a script step that returns a recoverable service error.
func Fail() Step {
	return Step{Err: ai.NewRecoverableError(nil, "fake transcription service unavailable")}
}

// Append adds steps to the end of the script.
func (t *Transcriber) Append(steps ...Step) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.script = append(t.script, steps...)
}

// CallCount returns the number of Transcribe calls served.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func (t *Transcriber) Transcribe(ctx context.Context, seg audio.Segment, lang string) (stt.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.next >= len(t.script) {
		return stt.Result{}, nil
	}
	step := t.script[t.next]
	t.next++
	if step.Err != nil {
		return stt.Result{}, step.Err
	}
	return step.Result, nil
}
