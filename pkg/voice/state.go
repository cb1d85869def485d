// Package voice implements the voice-command session: windowed microphone
// capture, transcript routing, the command table with its multi-turn task
// dialogue, and serialized speech output. All mutable session state lives in
// a single SessionState owned by the Controller; components mutate it only
// through its methods, and the single audio device is arbitrated through
// turn ownership rather than acquired directly.
package voice

import (
	"fmt"
	"sync"
)

// TurnOwner identifies which activity currently owns the audio device.
// At most one owner holds the turn at any instant: listening, speaking and
// face recognition must never overlap.
type TurnOwner int

const (
	TurnNone TurnOwner = iota
	TurnListening
	TurnSpeaking
	TurnFace
)

func (o TurnOwner) String() string {
	switch o {
	case TurnNone:
		return "none"
	case TurnListening:
		return "listening"
	case TurnSpeaking:
		return "speaking"
	case TurnFace:
		return "face"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// DialogueStep is the stage of the task-creation dialogue.
type DialogueStep int

const (
	AwaitingTitle DialogueStep = iota
	AwaitingDate
)

// PendingTask is the draft of the task-creation dialogue. It spans at most
// two user turns: title, then date.
type PendingTask struct {
	Step      DialogueStep
	TempTitle string
}

// SessionState is the single mutable record of the voice session. The
// Controller owns it; Capture and Speaker receive a reference and mutate it
// only through these methods.
type SessionState struct {
	mu sync.Mutex

	owner             TurnOwner
	processing        bool // a captured segment is awaiting transcription
	awaitingYesNo     bool // login-consent dialogue step
	readingNews       bool
	pendingStart      bool // start listening as soon as speech finishes
	resumeAfterSpeech bool // face scan ended; resume once speech finishes
	muted             bool // "salir" cool-down window

	pendingTask *PendingTask
}

// NewSessionState creates an idle session state.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// AcquireTurn takes ownership of the audio device for the given owner.
// It fails if another owner currently holds the turn.
func (s *SessionState) AcquireTurn(o TurnOwner) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != TurnNone && s.owner != o {
		return false
	}
	s.owner = o
	return true
}

// ReleaseTurn gives up the turn if held by the given owner.
func (s *SessionState) ReleaseTurn(o TurnOwner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == o {
		s.owner = TurnNone
	}
}

// Owner returns the current turn owner.
func (s *SessionState) Owner() TurnOwner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// IsListening reports whether a capture window is active.
func (s *SessionState) IsListening() bool { return s.Owner() == TurnListening }

// IsSpeaking reports whether an utterance is in flight.
func (s *SessionState) IsSpeaking() bool { return s.Owner() == TurnSpeaking }

// IsFaceActive reports whether the face-scan flow owns the turn.
func (s *SessionState) IsFaceActive() bool { return s.Owner() == TurnFace }

func (s *SessionState) SetProcessing(v bool) {
	s.mu.Lock()
	s.processing = v
	s.mu.Unlock()
}

func (s *SessionState) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

func (s *SessionState) SetAwaitingYesNo(v bool) {
	s.mu.Lock()
	s.awaitingYesNo = v
	s.mu.Unlock()
}

func (s *SessionState) AwaitingYesNo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaitingYesNo
}

func (s *SessionState) SetReadingNews(v bool) {
	s.mu.Lock()
	s.readingNews = v
	s.mu.Unlock()
}

func (s *SessionState) IsReadingNews() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readingNews
}

func (s *SessionState) SetPendingStart(v bool) {
	s.mu.Lock()
	s.pendingStart = v
	s.mu.Unlock()
}

func (s *SessionState) SetResumeAfterSpeech(v bool) {
	s.mu.Lock()
	s.resumeAfterSpeech = v
	s.mu.Unlock()
}

// ConsumePendingStart atomically clears and returns the deferred-start
// flag alone. Capture calls this when a transcription round-trip ends so a
// start deferred mid-flight is honored even when no speech follows.
func (s *SessionState) ConsumePendingStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.pendingStart
	s.pendingStart = false
	return start
}

// ConsumeStartFlags atomically clears and returns whether a deferred or
// resume start was requested. The Speaker calls this once per completed
// utterance so listening restarts exactly once.
func (s *SessionState) ConsumeStartFlags() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.pendingStart || s.resumeAfterSpeech
	s.pendingStart = false
	s.resumeAfterSpeech = false
	return start
}

func (s *SessionState) SetMuted(v bool) {
	s.mu.Lock()
	s.muted = v
	s.mu.Unlock()
}

func (s *SessionState) IsMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// PendingTask returns the current dialogue draft, or nil.
func (s *SessionState) PendingTask() *PendingTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingTask == nil {
		return nil
	}
	p := *s.pendingTask
	return &p
}

// SetPendingTask replaces the dialogue draft (nil clears it).
func (s *SessionState) SetPendingTask(p *PendingTask) {
	s.mu.Lock()
	s.pendingTask = p
	s.mu.Unlock()
}
