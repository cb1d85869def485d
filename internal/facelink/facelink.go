// Package facelink bridges the voice session to the face-recognition
// process over a websocket. The voice controller asks it to activate a scan;
// the recognizer pushes a finished event, with the recognized user attached
// when the scan succeeded.
package facelink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/danihdz11/mirror-voice-go/pkg/mirror"
)

// Event types on the wire.
const (
	eventActivate = "activate"
	eventFinished = "finished"
)

type message struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	User json.RawMessage `json:"user,omitempty"`
}

// FinishedFunc receives the outcome of a scan. user is nil when no face was
// recognized.
type FinishedFunc func(user *mirror.User)

// Link is a websocket client for the face-recognition service.
type Link struct {
	url    string
	logger *slog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	finished FinishedFunc
}

// New creates a face-recognition link. The connection is established by
// Connect.
func New(url string, logger *slog.Logger) *Link {
	if logger == nil {
		logger = slog.Default()
	}
	return &Link{url: url, logger: logger}
}

// OnFinished registers the scan-outcome callback.
func (l *Link) OnFinished(fn FinishedFunc) {
	l.mu.Lock()
	l.finished = fn
	l.mu.Unlock()
}

// Connect dials the recognizer and starts the read loop.
func (l *Link) Connect(ctx context.Context) error {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to face service: %w", err)
	}

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	l.logger.Info("face service connected", "url", l.url)
	go l.readLoop(conn)
	return nil
}

// Activate asks the recognizer to start a scan.
func (l *Link) Activate(ctx context.Context) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("face service not connected")
	}

	msg := message{Type: eventActivate, ID: uuid.NewString()}
	l.logger.Debug("activating face scan", "id", msg.ID)
	if err := conn.WriteJSON(&msg); err != nil {
		return fmt.Errorf("failed to request face scan: %w", err)
	}
	return nil
}

// Close shuts the connection down.
func (l *Link) Close() error {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()
	if conn == nil {
		return nil
	}
	l.logger.Info("closing face service connection")
	return conn.Close()
}

func (l *Link) readLoop(conn *websocket.Conn) {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			l.logger.Warn("face service read failed", "error", err)
			return
		}
		if msg.Type != eventFinished {
			l.logger.Debug("ignoring face service message", "type", msg.Type)
			continue
		}

		var user *mirror.User
		if len(msg.User) > 0 {
			var u mirror.User
			if err := json.Unmarshal(msg.User, &u); err != nil {
				l.logger.Warn("malformed user in finished event", "error", err)
			} else {
				user = &u
			}
		}

		l.mu.Lock()
		fn := l.finished
		l.mu.Unlock()
		if fn != nil {
			fn(user)
		}
	}
}
