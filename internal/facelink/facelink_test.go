package facelink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danihdz11/mirror-voice-go/pkg/mirror"
)

func newFaceServer(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestActivateAndFinishedWithUser(t *testing.T) {
	url := newFaceServer(t, func(conn *websocket.Conn) {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("read failed: %v", err)
			return
		}
		if msg.Type != eventActivate || msg.ID == "" {
			t.Errorf("unexpected activate message %+v", msg)
		}
		conn.WriteJSON(map[string]any{
			"type": eventFinished,
			"user": map[string]string{"id": "u1", "name": "Dani", "location": "Monterrey"},
		})
	})

	link := New(url, nil)
	results := make(chan *mirror.User, 1)
	link.OnFinished(func(u *mirror.User) { results <- u })

	if err := link.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer link.Close()

	if err := link.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case user := <-results:
		if user == nil || user.Name != "Dani" {
			t.Errorf("finished user = %+v", user)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("finished event never arrived")
	}
}

func TestFinishedWithoutUser(t *testing.T) {
	url := newFaceServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]any{"type": eventFinished})
	})

	link := New(url, nil)
	results := make(chan *mirror.User, 1)
	link.OnFinished(func(u *mirror.User) { results <- u })

	if err := link.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer link.Close()

	select {
	case user := <-results:
		if user != nil {
			t.Errorf("expected nil user, got %+v", user)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("finished event never arrived")
	}
}

func TestActivateWithoutConnection(t *testing.T) {
	link := New("ws://localhost:0", nil)
	if err := link.Activate(context.Background()); err == nil {
		t.Fatal("activate before connect must fail")
	}
}
