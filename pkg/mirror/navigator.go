package mirror

import "sync"

// Well-known view paths.
const (
	ViewMirror = "/mirror"
	ViewLogin  = "/login"
)

// Navigator tracks the active view and notifies subscribers on change. The
// voice controller both drives navigation (go-to-login, logout) and reacts
// to it (the login consent prompt, force-clearing stale dialogue state).
type Navigator struct {
	mu          sync.RWMutex
	path        string
	subscribers []func(path string)
}

// NewNavigator creates a navigator positioned at the given initial path.
func NewNavigator(initial string) *Navigator {
	if initial == "" {
		initial = ViewMirror
	}
	return &Navigator{path: initial}
}

// Path returns the active view path.
func (n *Navigator) Path() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.path
}

// Navigate changes the active view and notifies subscribers. Navigating to
// the current path is a no-op.
func (n *Navigator) Navigate(path string) {
	n.mu.Lock()
	if n.path == path {
		n.mu.Unlock()
		return
	}
	n.path = path
	subs := append([]func(string){}, n.subscribers...)
	n.mu.Unlock()

	for _, fn := range subs {
		fn(path)
	}
}

// Subscribe registers a route-changed callback.
func (n *Navigator) Subscribe(fn func(path string)) {
	n.mu.Lock()
	n.subscribers = append(n.subscribers, fn)
	n.mu.Unlock()
}
