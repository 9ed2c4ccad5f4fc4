package core

import "sync"

// Registry holds at most one live session per user.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*userLock),
	}
}

// LockUser serializes presence transitions of one user. The returned func
// releases the lock; the entry is dropped once nobody holds or waits on it.
func (r *Registry) LockUser(userID int64) (unlock func()) {
	r.mu.Lock()
	l, ok := r.locks[userID]
	if !ok {
		l = &userLock{}
		r.locks[userID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, userID)
		}
		r.mu.Unlock()
	}
}

// Register makes s the live session for its user and returns the session
// it replaced, if any.
func (r *Registry) Register(s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.sessions[s.UserID]
	r.sessions[s.UserID] = s
	if prev == s {
		return nil
	}
	return prev
}

// Unregister removes s only if it is still the live session for its user.
// A superseded session leaves the newer one in place and reports false.
func (r *Registry) Unregister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[s.UserID] != s {
		return false
	}
	delete(r.sessions, s.UserID)
	return true
}

// Lookup returns the live session for userID.
func (r *Registry) Lookup(userID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	return s, ok
}

// Online returns the number of live sessions.
func (r *Registry) Online() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
