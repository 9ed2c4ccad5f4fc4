package core

import "sync"

// Room groups sessions subscribed to the same group chat.
type Room struct {
	GroupID  int64
	sessions map[*Session]struct{}
}

// NewRoom constructs a room with no sessions.
func NewRoom(groupID int64) *Room {
	return &Room{
		GroupID:  groupID,
		sessions: make(map[*Session]struct{}),
	}
}

// AddSession inserts a session into the room. Returns true if newly added.
func (r *Room) AddSession(s *Session) bool {
	if _, exists := r.sessions[s]; exists {
		return false
	}
	r.sessions[s] = struct{}{}
	return true
}

// RemoveSession deletes a session from the room. Returns true if removed.
func (r *Room) RemoveSession(s *Session) bool {
	if _, exists := r.sessions[s]; !exists {
		return false
	}
	delete(r.sessions, s)
	return true
}

// Broadcast sends an event to all sessions in the room except skip.
// Slow consumers drop the event.
func (r *Room) Broadcast(event *Event, skip *Session) int {
	delivered := 0
	for s := range r.sessions {
		if s == skip {
			continue
		}
		if s.Send(event) {
			delivered++
		}
	}
	return delivered
}

// Empty returns true if no sessions are in the room.
func (r *Room) Empty() bool {
	return len(r.sessions) == 0
}

// Topics maps group ids to the live sessions subscribed to them.
type Topics struct {
	mu    sync.RWMutex
	rooms map[int64]*Room
}

// NewTopics constructs an empty topic table.
func NewTopics() *Topics {
	return &Topics{rooms: make(map[int64]*Room)}
}

// Join subscribes s to groupID. Returns false if already subscribed.
func (t *Topics) Join(groupID int64, s *Session) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[groupID]
	if !ok {
		room = NewRoom(groupID)
		t.rooms[groupID] = room
	}
	if !room.AddSession(s) {
		return false
	}
	s.groups[groupID] = struct{}{}
	return true
}

// Leave unsubscribes s from groupID. Empty rooms are removed.
func (t *Topics) Leave(groupID int64, s *Session) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaveLocked(groupID, s)
}

func (t *Topics) leaveLocked(groupID int64, s *Session) bool {
	delete(s.groups, groupID)
	room, ok := t.rooms[groupID]
	if !ok {
		return false
	}
	removed := room.RemoveSession(s)
	if room.Empty() {
		delete(t.rooms, groupID)
	}
	return removed
}

// LeaveAll unsubscribes s from every group it joined.
func (t *Topics) LeaveAll(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for groupID := range s.groups {
		t.leaveLocked(groupID, s)
	}
}

// Drop removes the whole room for groupID.
func (t *Topics) Drop(groupID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[groupID]
	if !ok {
		return
	}
	for s := range room.sessions {
		delete(s.groups, groupID)
	}
	delete(t.rooms, groupID)
}

// Broadcast delivers event to every subscriber of groupID except skip.
func (t *Topics) Broadcast(groupID int64, event *Event, skip *Session) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	room, ok := t.rooms[groupID]
	if !ok {
		return 0
	}
	return room.Broadcast(event, skip)
}

// subscribed reports whether s currently receives groupID traffic.
func (t *Topics) subscribed(groupID int64, s *Session) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := s.groups[groupID]
	return ok
}
