// Package arecord captures microphone audio by streaming raw PCM from an
// ALSA recorder binary. It keeps the process alive across recording windows
// and slices its stdout into fixed-length segments.
package arecord

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
)

// DefaultBinary is the ALSA capture tool.
const DefaultBinary = "arecord"

// Microphone implements audio.Microphone on top of an external recorder
// process emitting raw little-endian PCM on stdout.
type Microphone struct {
	binary string
	format audio.Format

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// New creates a microphone using the given recorder binary (empty for the
// default) and capture format.
func New(binary string, format audio.Format) *Microphone {
	if binary == "" {
		binary = DefaultBinary
	}
	if format.SampleRate == 0 {
		format = audio.DefaultFormat
	}
	return &Microphone{binary: binary, format: format}
}

// Open starts the recorder process. A missing binary is fatal: retrying
// cannot produce a microphone.
func (m *Microphone) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmd != nil {
		return nil
	}

	if _, err := exec.LookPath(m.binary); err != nil {
		return ai.NewFatalError(err, "microphone access denied: recorder binary not found")
	}

	cmd := exec.CommandContext(ctx, m.binary,
		"-f", "S16_LE",
		"-r", strconv.Itoa(m.format.SampleRate),
		"-c", strconv.Itoa(m.format.Channels),
		"-t", "raw",
		"-q",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ai.NewRecoverableError(err, "failed to open recorder pipe")
	}
	if err := cmd.Start(); err != nil {
		return ai.NewFatalError(err, "failed to start recorder")
	}

	m.cmd = cmd
	m.stdout = stdout
	return nil
}

// Record reads one window of PCM from the recorder.
func (m *Microphone) Record(ctx context.Context, window time.Duration) (audio.Segment, error) {
	m.mu.Lock()
	stdout := m.stdout
	m.mu.Unlock()
	if stdout == nil {
		return audio.Segment{}, ai.NewFatalError(nil, "microphone not open")
	}

	bytesPerSecond := m.format.SampleRate * m.format.Channels * m.format.BitsPerSample / 8
	size := int(float64(bytesPerSecond) * window.Seconds())
	buf := make([]byte, size)

	n, err := io.ReadFull(stdout, buf)
	if err != nil {
		if ctx.Err() != nil {
			return audio.Segment{}, ctx.Err()
		}
		return audio.Segment{}, ai.NewFatalError(err, fmt.Sprintf("recorder stream ended after %d bytes", n))
	}

	return audio.Segment{
		Data:     buf,
		MimeType: "audio/pcm",
		Duration: window,
		Captured: time.Now(),
	}, nil
}

// Close stops the recorder process.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmd == nil {
		return nil
	}

	_ = m.stdout.Close()
	err := m.cmd.Process.Kill()
	_ = m.cmd.Wait()
	m.cmd = nil
	m.stdout = nil
	if err != nil {
		return fmt.Errorf("failed to stop recorder: %w", err)
	}
	return nil
}
