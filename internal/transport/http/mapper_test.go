package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/socialchat-server/internal/core"
	"github.com/vovakirdan/socialchat-server/internal/proto"
	"github.com/vovakirdan/socialchat-server/internal/store"
)

func TestInboundToCommand(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		data    string
		want    *core.Command
		errCode string
	}{
		{
			name: "private defaults",
			typ:  proto.InboundTypeSendPrivate,
			data: `{"to_user_id":2,"body":"hi"}`,
			want: &core.Command{Kind: core.CommandSendPrivate, TargetUserID: 2, Body: "hi"},
		},
		{
			name: "group image",
			typ:  proto.InboundTypeSendGroup,
			data: `{"group_id":5,"body":"http://img","kind":"image"}`,
			want: &core.Command{Kind: core.CommandSendGroup, GroupID: 5, Body: "http://img", MessageKind: store.MessageKindImage},
		},
		{
			name: "hide",
			typ:  proto.InboundTypeSetVisibility,
			data: `{"visible":false}`,
			want: &core.Command{Kind: core.CommandSetVisibility},
		},
		{
			name: "typing stop in group",
			typ:  proto.InboundTypeTypingStop,
			data: `{"group_id":3}`,
			want: &core.Command{Kind: core.CommandTypingStop, GroupID: 3},
		},
		{
			name: "respond",
			typ:  proto.InboundTypeRespondFriendRequest,
			data: `{"sender_id":4,"decision":"accepted"}`,
			want: &core.Command{Kind: core.CommandRespondFriendRequest, TargetUserID: 4, Decision: core.DecisionAccepted},
		},
		{name: "bad decision", typ: proto.InboundTypeRespondFriendRequest, data: `{"sender_id":4,"decision":"later"}`, errCode: core.ErrCodeBadRequest},
		{name: "second hello", typ: proto.InboundTypeHello, data: `{"token":"x"}`, errCode: core.ErrCodeBadRequest},
		{name: "unknown", typ: "dance", data: `{}`, errCode: core.ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, protoErr := inboundToCommand(proto.Inbound{Type: tt.typ, Data: json.RawMessage(tt.data)})
			if tt.errCode != "" {
				require.Nil(t, cmd)
				require.NotNil(t, protoErr)
				require.Equal(t, tt.errCode, protoErr.Code)
				return
			}
			require.Nil(t, protoErr)
			require.Equal(t, tt.want, cmd)
		})
	}
}

func TestOutboundFromEvent(t *testing.T) {
	created := time.Unix(1700000000, 0)
	out := outboundFromEvent(&core.Event{
		Kind: core.EventGroupMessage,
		Message: &core.Message{
			ID: 9, SenderID: 1, SenderName: "alice", GroupID: 3, Body: "yo", Kind: store.MessageKindText, CreatedAt: created,
		},
	})
	require.Equal(t, proto.OutboundTypeEvent, out.Type)
	require.Equal(t, proto.EventGroupMessage, out.Event)
	require.Equal(t, proto.EventMessage{
		ID: 9, SenderID: 1, SenderUsername: "alice", GroupID: 3, Body: "yo", Kind: "text", TS: created.Unix(),
	}, out.Data)

	snap := outboundFromEvent(&core.Event{Kind: core.EventPresenceSnapshot})
	require.Equal(t, proto.PresenceSnapshot{OnlineUserIDs: []int64{}}, snap.Data)

	errOut := outboundFromEvent(&core.Event{Kind: core.EventError, Error: core.NewError(core.ErrCodeNotFound, "group not found")})
	require.Equal(t, proto.OutboundTypeError, errOut.Type)
	require.Equal(t, &proto.Error{Code: core.ErrCodeNotFound, Msg: "group not found"}, errOut.Error)
}
