package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/socialchat-server/internal/store"
)

func TestFriendRequestHandshake(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	aliceSess := connect(t, hub, alice)
	bobSess := connect(t, hub, bob)

	hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendFriendRequest, TargetUserID: bob.ID})
	incoming := mustEvent(t, bobSess.Events, EventNewFriendRequest)
	req.Equal(alice.ID, incoming.Profile.ID)
	req.Equal("alice", incoming.Profile.Username)
	req.Equal(bob.ID, mustEvent(t, aliceSess.Events, EventFriendRequestAck).UserID)

	hub.Handle(ctx, bobSess, &Command{Kind: CommandRespondFriendRequest, TargetUserID: alice.ID, Decision: DecisionAccepted})
	accepted := mustEvent(t, aliceSess.Events, EventFriendRequestAccepted)
	req.Equal(bob.ID, accepted.Profile.ID)
	ack := mustEvent(t, bobSess.Events, EventFriendResponseAck)
	req.Equal(alice.ID, ack.UserID)
	req.Equal(DecisionAccepted, ack.Decision)

	edge, err := st.GetFriendship(ctx, alice.ID, bob.ID)
	req.NoError(err)
	req.Equal(store.FriendStatusAccepted, edge.Status)
	req.Equal(bob.ID, edge.ActionUserID)

	// A second answer finds nothing pending.
	hub.Handle(ctx, bobSess, &Command{Kind: CommandRespondFriendRequest, TargetUserID: alice.ID, Decision: DecisionAccepted})
	failed := mustEvent(t, bobSess.Events, EventFriendResponseError)
	req.Equal("Friend request not found or already handled.", failed.Text)
	req.Equal(ErrCodeConflict, failed.Error.Code)
	req.ErrorIs(failed.Error, ErrConflict)
}

func TestFriendRequestRejectReturnsToNone(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	aliceSess := connect(t, hub, alice)
	bobSess := connect(t, hub, bob)

	// Re-sending keeps a single pending edge.
	hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendFriendRequest, TargetUserID: bob.ID})
	hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendFriendRequest, TargetUserID: bob.ID})
	mustEvent(t, bobSess.Events, EventNewFriendRequest)
	mustEvent(t, bobSess.Events, EventNewFriendRequest)

	hub.Handle(ctx, bobSess, &Command{Kind: CommandRespondFriendRequest, TargetUserID: alice.ID, Decision: DecisionRejected})
	ack := mustEvent(t, bobSess.Events, EventFriendResponseAck)
	req.Equal(DecisionRejected, ack.Decision)
	noEvent(t, aliceSess.Events, EventFriendRequestAccepted)

	_, err := st.GetFriendship(ctx, alice.ID, bob.ID)
	req.ErrorIs(err, store.ErrNotFound)
}

func TestFriendRequestErrors(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	req.NoError(st.BlockUser(ctx, bob.ID, alice.ID))

	aliceSess := connect(t, hub, alice)
	bobSess := connect(t, hub, bob)
	drain(aliceSess)

	for _, target := range []int64{alice.ID, 999, bob.ID} {
		hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendFriendRequest, TargetUserID: target})
		ev := mustEvent(t, aliceSess.Events, EventFriendRequestError)
		req.NotEmpty(ev.Text)
	}
	noEvent(t, bobSess.Events, EventNewFriendRequest)

	edge, err := st.GetFriendship(ctx, alice.ID, bob.ID)
	req.NoError(err)
	req.Equal(store.FriendStatusBlocked, edge.Status)

	hub.Handle(ctx, bobSess, &Command{Kind: CommandRespondFriendRequest, TargetUserID: alice.ID, Decision: "maybe"})
	mustEvent(t, bobSess.Events, EventFriendResponseError)
}
