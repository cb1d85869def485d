package mirror

import "sync"

// User is the logged-in mirror user.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// SessionStore holds the current user session. The voice controller clears
// it on logout; listeners (widgets, the face-login flow) are notified.
type SessionStore struct {
	mu        sync.RWMutex
	user      *User
	listeners []func()
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Current returns the logged-in user, if any.
func (s *SessionStore) Current() (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, false
	}
	u := *s.user
	return &u, true
}

// SetUser records a login.
func (s *SessionStore) SetUser(u User) {
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
}

// Clear removes the session and notifies logout listeners.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	hadUser := s.user != nil
	s.user = nil
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	if hadUser {
		for _, fn := range listeners {
			fn()
		}
	}
}

// OnLogout registers a callback fired when the session is cleared.
func (s *SessionStore) OnLogout(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}
