// Package audio defines the audio capture primitives used by the voice
// session: the Segment (one fixed-duration recording window processed as a
// unit) and the Microphone device abstraction. The microphone is an
// exclusive resource; ownership is arbitrated by the voice controller, never
// acquired by components directly.
package audio

import (
	"context"
	"time"
)

// Segment is one recording window captured from the microphone. Segments are
// the unit handed to the transcription provider. A segment smaller than the
// configured minimum byte threshold is treated as silence and discarded
// before transcription.
type Segment struct {
	Data     []byte // encoded audio, format per MimeType
	MimeType string // e.g. "audio/wav"
	Duration time.Duration
	Captured time.Time
}

// Empty reports whether the segment carries no audio data.
func (s Segment) Empty() bool {
	return len(s.Data) == 0
}

// Format describes raw PCM audio.
type Format struct {
	SampleRate    int // e.g. 16000
	Channels      int // 1 or 2
	BitsPerSample int // typically 16
}

// DefaultFormat is 16 kHz mono 16-bit PCM, the capture format sent for
// transcription.
var DefaultFormat = Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}

// Microphone is the capture device. Open acquires the device (may fail with
// a permission error, which is fatal for the listening attempt), Record
// blocks for one window and returns the captured segment, Close releases the
// device.
type Microphone interface {
	Open(ctx context.Context) error
	Record(ctx context.Context, window time.Duration) (Segment, error)
	Close() error
}
