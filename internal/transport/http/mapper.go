package http

import (
	"errors"

	"github.com/vovakirdan/socialchat-server/internal/core"
	"github.com/vovakirdan/socialchat-server/internal/proto"
	"github.com/vovakirdan/socialchat-server/internal/store"
)

// inboundToCommand maps a client frame to a core command. A non-nil
// proto.Error is reported to the client and the frame is skipped.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeSetVisibility:
		var data proto.SetVisibilityData
		if err := proto.Decode(inbound.Data, &data); err != nil {
			return nil, payloadError(err)
		}
		return &core.Command{Kind: core.CommandSetVisibility, Visible: *data.Visible}, nil
	case proto.InboundTypeSendPrivate:
		var data proto.SendPrivateData
		if err := proto.Decode(inbound.Data, &data); err != nil {
			return nil, payloadError(err)
		}
		return &core.Command{
			Kind:         core.CommandSendPrivate,
			TargetUserID: data.ToUserID,
			Body:         data.Body,
			MessageKind:  store.MessageKind(data.Kind),
		}, nil
	case proto.InboundTypeSendGroup:
		var data proto.SendGroupData
		if err := proto.Decode(inbound.Data, &data); err != nil {
			return nil, payloadError(err)
		}
		return &core.Command{
			Kind:        core.CommandSendGroup,
			GroupID:     data.GroupID,
			Body:        data.Body,
			MessageKind: store.MessageKind(data.Kind),
		}, nil
	case proto.InboundTypeMarkRead:
		var data proto.MarkReadData
		if err := proto.Decode(inbound.Data, &data); err != nil {
			return nil, payloadError(err)
		}
		return &core.Command{Kind: core.CommandMarkRead, TargetUserID: data.PeerID}, nil
	case proto.InboundTypeTypingStart, proto.InboundTypeTypingStop:
		var data proto.TypingData
		if err := proto.Decode(inbound.Data, &data); err != nil {
			return nil, payloadError(err)
		}
		kind := core.CommandTypingStart
		if inbound.Type == proto.InboundTypeTypingStop {
			kind = core.CommandTypingStop
		}
		return &core.Command{Kind: kind, TargetUserID: data.ToUserID, GroupID: data.GroupID}, nil
	case proto.InboundTypeSendFriendRequest:
		var data proto.FriendRequestData
		if err := proto.Decode(inbound.Data, &data); err != nil {
			return nil, payloadError(err)
		}
		return &core.Command{Kind: core.CommandSendFriendRequest, TargetUserID: data.ReceiverID}, nil
	case proto.InboundTypeRespondFriendRequest:
		var data proto.FriendResponseData
		if err := proto.Decode(inbound.Data, &data); err != nil {
			return nil, payloadError(err)
		}
		return &core.Command{
			Kind:         core.CommandRespondFriendRequest,
			TargetUserID: data.SenderID,
			Decision:     data.Decision,
		}, nil
	case proto.InboundTypeHello:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "already authenticated"}
	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown message type"}
	}
}

func payloadError(err error) *proto.Error {
	msg := err.Error()
	var decodeErr *proto.DecodeError
	if errors.As(err, &decodeErr) {
		msg = decodeErr.Reason
	}
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

func outboundEvent(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func eventMessage(m *core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:             m.ID,
		SenderID:       m.SenderID,
		SenderUsername: m.SenderName,
		SenderAvatar:   m.SenderAvatar,
		ReceiverID:     m.RecipientID,
		GroupID:        m.GroupID,
		Body:           m.Body,
		Kind:           string(m.Kind),
		IsRead:         m.Read,
		TS:             m.CreatedAt.Unix(),
	}
}

func profile(p *core.Profile) proto.Profile {
	if p == nil {
		return proto.Profile{}
	}
	return proto.Profile{ID: p.ID, Username: p.Username, AvatarURL: p.AvatarURL}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventPresenceSnapshot:
		ids := event.UserIDs
		if ids == nil {
			ids = []int64{}
		}
		return outboundEvent(proto.EventPresenceSnapshot, proto.PresenceSnapshot{OnlineUserIDs: ids})
	case core.EventUserOnline:
		return outboundEvent(proto.EventUserOnline, proto.PresenceChange{UserID: event.UserID})
	case core.EventUserOffline:
		return outboundEvent(proto.EventUserOffline, proto.PresenceChange{UserID: event.UserID})
	case core.EventPrivateMessage:
		return outboundEvent(proto.EventPrivateMessage, eventMessage(event.Message))
	case core.EventGroupMessage:
		return outboundEvent(proto.EventGroupMessage, eventMessage(event.Message))
	case core.EventMessageBlocked:
		return outboundEvent(proto.EventMessageBlocked, proto.MessageBlocked{ToUserID: event.UserID, Reason: event.Text})
	case core.EventMessagesRead:
		return outboundEvent(proto.EventMessagesRead, proto.MessagesRead{ReaderID: event.UserID, ReaderName: event.Username})
	case core.EventUserTyping:
		return outboundEvent(proto.EventUserTyping, proto.Typing{UserID: event.UserID, Username: event.Username, GroupID: event.GroupID})
	case core.EventUserStoppedTyping:
		return outboundEvent(proto.EventUserStoppedTyping, proto.Typing{UserID: event.UserID, Username: event.Username, GroupID: event.GroupID})
	case core.EventNewFriendRequest:
		return outboundEvent(proto.EventNewFriendRequest, profile(event.Profile))
	case core.EventFriendRequestAccepted:
		return outboundEvent(proto.EventFriendRequestAccepted, profile(event.Profile))
	case core.EventFriendRequestAck:
		return outboundEvent(proto.EventFriendRequestAck, proto.FriendRequestAck{ReceiverID: event.UserID})
	case core.EventFriendRequestError:
		return outboundEvent(proto.EventFriendRequestError, proto.Notice{Message: event.Text})
	case core.EventFriendResponseAck:
		return outboundEvent(proto.EventFriendResponseAck, proto.FriendResponseAck{SenderID: event.UserID, Decision: event.Decision})
	case core.EventFriendResponseError:
		return outboundEvent(proto.EventFriendResponseError, proto.Notice{Message: event.Text})
	case core.EventGroupRenamed:
		return outboundEvent(proto.EventGroupRenamed, proto.GroupRenamed{GroupID: event.GroupID, Name: event.Text})
	case core.EventGroupThemeUpdated:
		return outboundEvent(proto.EventGroupThemeUpdated, proto.GroupThemeUpdated{GroupID: event.GroupID, Theme: event.Text})
	case core.EventGroupMemberLeft:
		return outboundEvent(proto.EventGroupMemberLeft, proto.GroupNotice{GroupID: event.GroupID, UserID: event.UserID, Text: event.Text})
	case core.EventGroupDisbanded:
		return outboundEvent(proto.EventGroupDisbanded, proto.GroupNotice{GroupID: event.GroupID, Text: event.Text})
	case core.EventSessionReplaced:
		return outboundEvent(proto.EventSessionReplaced, proto.Notice{Message: event.Text})
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: core.ErrCodeInternal, Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
