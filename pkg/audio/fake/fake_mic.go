// Package fake provides a scripted Microphone for tests and the demo CLI.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
)

// Microphone replays a fixed script of segments, one per Record call.
// Once the script is exhausted, Record returns empty (silence) segments.
type Microphone struct {
	mu       sync.Mutex
	script   []audio.Segment
	next     int
	open     bool
	denied   bool
	OpenErr  error // returned by Open when set
	recorded int
}

// NewMicrophone creates a microphone that yields the given segments in order.
func NewMicrophone(script ...audio.Segment) *Microphone {
	return &Microphone{script: script}
}

// NewDeniedMicrophone creates a microphone whose Open always fails with a
// fatal permission error, mimicking a denied device prompt.
func NewDeniedMicrophone() *Microphone {
	return &Microphone{denied: true}
}

// Segment builds a script entry of the given size filled with a ramp pattern.
func Segment(size int) audio.Segment {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return audio.Segment{Data: data, MimeType: "audio/wav", Captured: time.Now()}
}

func (m *Microphone) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied {
		return ai.NewFatalError(nil, "microphone access denied")
	}
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.open = true
	return nil
}

func (m *Microphone) Record(ctx context.Context, window time.Duration) (audio.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return audio.Segment{}, ai.NewFatalError(nil, "microphone not open")
	}
	m.recorded++
	if m.next >= len(m.script) {
		return audio.Segment{MimeType: "audio/wav"}, nil
	}
	seg := m.script[m.next]
	m.next++
	seg.Duration = window
	return seg, nil
}

func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

// RecordCount returns the number of Record calls served.
func (m *Microphone) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recorded
}

// IsOpen reports whether the device is currently held.
func (m *Microphone) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}
