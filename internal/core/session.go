package core

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const defaultSessionBuffer = 64

// Session is an authenticated live connection as seen by the core layer.
type Session struct {
	ID       string
	UserID   int64
	Name     string
	Avatar   string
	Commands chan *Command
	Events   chan *Event

	visible   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	// groups is guarded by Topics.mu.
	groups map[int64]struct{}
}

// NewSession constructs a session with initialized channels.
func NewSession(userID int64, name, avatar string, buffer int) *Session {
	if buffer <= 0 {
		buffer = defaultSessionBuffer
	}
	return &Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     name,
		Avatar:   avatar,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
		groups:   make(map[int64]struct{}),
	}
}

// Send queues an event for the connection. It never blocks: events for a
// closed session or a full buffer are dropped and Send reports false.
func (s *Session) Send(ev *Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}

// Visible mirrors the persisted online status preference.
func (s *Session) Visible() bool {
	return s.visible.Load()
}

func (s *Session) setVisible(v bool) {
	s.visible.Store(v)
}

// Done is closed once the session has been disconnected.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// close reports true only for the first call.
func (s *Session) close() bool {
	closed := false
	s.closeOnce.Do(func() {
		close(s.done)
		closed = true
	})
	return closed
}

// Profile is the public view of the session's user.
func (s *Session) Profile() *Profile {
	return &Profile{ID: s.UserID, Username: s.Name, AvatarURL: s.Avatar}
}
