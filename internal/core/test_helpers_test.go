package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/socialchat-server/internal/store"
	"github.com/vovakirdan/socialchat-server/internal/store/sqlite"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// noEvent drains whatever is queued and fails if kind is among it.
func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			return
		}
	}
}

// countEvents drains what is queued on s and counts events of kind.
func countEvents(s *Session, kind EventKind) int {
	n := 0
	for {
		select {
		case ev := <-s.Events:
			if ev != nil && ev.Kind == kind {
				n++
			}
		default:
			return n
		}
	}
}

func drain(s *Session) {
	for {
		select {
		case <-s.Events:
		default:
			return
		}
	}
}

func newTestHub(t *testing.T) (*Hub, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return NewHub(st, nil, Options{}), st
}

func seedUser(t *testing.T, st store.Store, name string) *store.User {
	t.Helper()

	u, err := st.CreateUser(context.Background(), name, "hash")
	require.NoError(t, err)
	return u
}

func befriend(t *testing.T, st store.Store, a, b *store.User) {
	t.Helper()

	ctx := context.Background()
	_, err := st.UpsertFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	ok, err := st.RespondFriendRequest(ctx, b.ID, a.ID, true)
	require.NoError(t, err)
	require.True(t, ok)
}

func connect(t *testing.T, hub *Hub, u *store.User) *Session {
	t.Helper()

	sess, err := hub.Connect(context.Background(), u.ID, u.Username)
	require.NoError(t, err)
	return sess
}
