package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/socialchat-server/internal/store"
)

func TestPrivateMessageEchoAndDelivery(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	aliceSess := connect(t, hub, alice)
	bobSess := connect(t, hub, bob)

	hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendPrivate, TargetUserID: bob.ID, Body: "hi"})

	echo := mustEvent(t, aliceSess.Events, EventPrivateMessage)
	got := mustEvent(t, bobSess.Events, EventPrivateMessage)
	req.Same(echo.Message, got.Message)
	req.NotZero(got.Message.ID)
	req.Equal("alice", got.Message.SenderName)
	req.Equal(bob.ID, got.Message.RecipientID)
	req.Equal(store.MessageKindText, got.Message.Kind)
	req.False(got.Message.Read)

	history, err := st.ListPrivateMessages(ctx, alice.ID, bob.ID, 10)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(got.Message.ID, history[0].ID)
}

func TestPrivateMessageToOfflineUserIsStored(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	aliceSess := connect(t, hub, alice)
	hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendPrivate, TargetUserID: bob.ID, Body: "later", MessageKind: store.MessageKindImage})
	echo := mustEvent(t, aliceSess.Events, EventPrivateMessage)
	req.Equal(store.MessageKindImage, echo.Message.Kind)

	history, err := st.ListPrivateMessages(ctx, bob.ID, alice.ID, 10)
	req.NoError(err)
	req.Len(history, 1)
}

func TestPrivateMessageRejections(t *testing.T) {
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	aliceSess := connect(t, hub, alice)

	tests := []struct {
		name   string
		target int64
		code   string
	}{
		{name: "self", target: alice.ID, code: ErrCodeBadRequest},
		{name: "unknown recipient", target: 999, code: ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drain(aliceSess)
			hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendPrivate, TargetUserID: tt.target, Body: "x"})
			ev := mustEvent(t, aliceSess.Events, EventError)
			require.Equal(t, tt.code, ev.Error.Code)
		})
	}
}

func TestBlockedSenderGetsMessageBlocked(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	befriend(t, st, alice, bob)
	req.NoError(st.BlockUser(ctx, bob.ID, alice.ID))

	aliceSess := connect(t, hub, alice)
	bobSess := connect(t, hub, bob)
	drain(bobSess)

	hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendPrivate, TargetUserID: bob.ID, Body: "hello?"})
	ev := mustEvent(t, aliceSess.Events, EventMessageBlocked)
	req.Equal(bob.ID, ev.UserID)
	noEvent(t, bobSess.Events, EventPrivateMessage)

	history, err := st.ListPrivateMessages(ctx, alice.ID, bob.ID, 10)
	req.NoError(err)
	req.Empty(history)

	// The blocker can still write.
	hub.Handle(ctx, bobSess, &Command{Kind: CommandSendPrivate, TargetUserID: alice.ID, Body: "bye"})
	mustEvent(t, aliceSess.Events, EventPrivateMessage)
}

func TestGroupMessageBroadcast(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	carol := seedUser(t, st, "carol")

	group, err := st.CreateGroup(ctx, "devs", alice.ID, []int64{bob.ID, carol.ID})
	req.NoError(err)
	_, err = st.RespondGroupInvitation(ctx, group.ID, bob.ID, true)
	req.NoError(err)

	aliceSess := connect(t, hub, alice)
	bobSess := connect(t, hub, bob)
	carolSess := connect(t, hub, carol) // still pending

	hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendGroup, GroupID: group.ID, Body: "standup"})

	req.Equal("standup", mustEvent(t, aliceSess.Events, EventGroupMessage).Message.Body)
	got := mustEvent(t, bobSess.Events, EventGroupMessage)
	req.Equal(group.ID, got.Message.GroupID)
	req.Equal(alice.ID, got.Message.SenderID)
	noEvent(t, carolSess.Events, EventGroupMessage)

	hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendGroup, GroupID: 999, Body: "void"})
	req.Equal(ErrCodeNotFound, mustEvent(t, aliceSess.Events, EventError).Error.Code)
}

func TestMarkReadNotifiesPeer(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	aliceSess := connect(t, hub, alice)
	bobSess := connect(t, hub, bob)

	hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendPrivate, TargetUserID: bob.ID, Body: "ping"})
	mustEvent(t, bobSess.Events, EventPrivateMessage)

	hub.Handle(ctx, bobSess, &Command{Kind: CommandMarkRead, TargetUserID: alice.ID})
	read := mustEvent(t, aliceSess.Events, EventMessagesRead)
	req.Equal("bob", read.Username)

	history, err := st.ListPrivateMessages(ctx, alice.ID, bob.ID, 10)
	req.NoError(err)
	req.True(history[0].Read)

	hub.Handle(ctx, bobSess, &Command{Kind: CommandMarkRead, TargetUserID: 999})
	req.Equal(ErrCodeNotFound, mustEvent(t, bobSess.Events, EventError).Error.Code)
}

func TestMarkReadFlipsEveryUnreadMessage(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	aliceSess := connect(t, hub, alice)
	bobSess := connect(t, hub, bob)

	for _, body := range []string{"one", "two", "three"} {
		hub.Handle(ctx, aliceSess, &Command{Kind: CommandSendPrivate, TargetUserID: bob.ID, Body: body})
	}
	hub.Handle(ctx, bobSess, &Command{Kind: CommandSendPrivate, TargetUserID: alice.ID, Body: "reply"})
	drain(aliceSess)
	drain(bobSess)

	hub.Handle(ctx, bobSess, &Command{Kind: CommandMarkRead, TargetUserID: alice.ID})
	req.Equal(1, countEvents(aliceSess, EventMessagesRead))
	req.Zero(countEvents(bobSess, EventMessagesRead))

	history, err := st.ListPrivateMessages(ctx, alice.ID, bob.ID, 10)
	req.NoError(err)
	req.Len(history, 4)
	for _, m := range history {
		// Only messages addressed to the reader change.
		req.Equal(m.SenderID == alice.ID, m.Read, m.Body)
	}
}

func TestTypingSignals(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	group, err := st.CreateGroup(ctx, "devs", alice.ID, []int64{bob.ID})
	req.NoError(err)
	_, err = st.RespondGroupInvitation(ctx, group.ID, bob.ID, true)
	req.NoError(err)

	aliceSess := connect(t, hub, alice)
	bobSess := connect(t, hub, bob)

	hub.Handle(ctx, aliceSess, &Command{Kind: CommandTypingStart, TargetUserID: bob.ID})
	req.Equal("alice", mustEvent(t, bobSess.Events, EventUserTyping).Username)

	hub.Handle(ctx, aliceSess, &Command{Kind: CommandTypingStop, GroupID: group.ID})
	ev := mustEvent(t, bobSess.Events, EventUserStoppedTyping)
	req.Equal(group.ID, ev.GroupID)
	noEvent(t, aliceSess.Events, EventUserStoppedTyping)

	hub.Handle(ctx, aliceSess, &Command{Kind: CommandTypingStart})
	req.Equal(ErrCodeBadRequest, mustEvent(t, aliceSess.Events, EventError).Error.Code)
}

func TestTypingDropIsLogged(t *testing.T) {
	req := require.New(t)
	_, st := newTestHub(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	hub := NewHub(st, &logger, Options{SessionBuffer: 1})

	aliceSess := connect(t, hub, alice)
	bobSess := connect(t, hub, bob) // the snapshot fills bob's buffer

	hub.Handle(ctx, aliceSess, &Command{Kind: CommandTypingStart, TargetUserID: bob.ID})

	req.Contains(buf.String(), "event dropped")
	req.Equal(EventPresenceSnapshot, (<-bobSess.Events).Kind)
	noEvent(t, bobSess.Events, EventUserTyping)
}
