package friends

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/socialchat-server/internal/store"
	"github.com/vovakirdan/socialchat-server/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st), st
}

func TestBlockUser(t *testing.T) {
	req := require.New(t)
	svc, st := newTestService(t)
	ctx := context.Background()

	alice, err := st.CreateUser(ctx, "alice", "h")
	req.NoError(err)
	bob, err := st.CreateUser(ctx, "bob", "h")
	req.NoError(err)

	req.ErrorIs(svc.BlockUser(ctx, alice.ID, alice.ID), ErrCannotBlockSelf)
	req.ErrorIs(svc.BlockUser(ctx, alice.ID, 999), ErrUserNotFound)

	_, err = st.UpsertFriendRequest(ctx, bob.ID, alice.ID)
	req.NoError(err)
	req.NoError(svc.BlockUser(ctx, alice.ID, bob.ID))

	edge, err := st.GetFriendship(ctx, alice.ID, bob.ID)
	req.NoError(err)
	req.Equal(store.FriendStatusBlocked, edge.Status)
	req.Equal(alice.ID, edge.ActionUserID)
}

func TestHistoryLimits(t *testing.T) {
	req := require.New(t)
	svc, st := newTestService(t)
	ctx := context.Background()

	alice, err := st.CreateUser(ctx, "alice", "h")
	req.NoError(err)
	bob, err := st.CreateUser(ctx, "bob", "h")
	req.NoError(err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		req.NoError(st.InsertPrivateMessage(ctx, &store.PrivateMessage{
			SenderID: alice.ID, ReceiverID: bob.ID, Body: fmt.Sprintf("m%d", i),
			Kind: store.MessageKindText, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	all, err := svc.History(ctx, bob.ID, alice.ID, 0)
	req.NoError(err)
	req.Len(all, 5)
	req.Equal("m0", all[0].Body)

	page, err := svc.History(ctx, bob.ID, alice.ID, 2)
	req.NoError(err)
	req.Len(page, 2)
}
