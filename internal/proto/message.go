package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello                = "hello"
	InboundTypeSetVisibility        = "set_visibility"
	InboundTypeSendPrivate          = "send_private"
	InboundTypeSendGroup            = "send_group"
	InboundTypeMarkRead             = "mark_read"
	InboundTypeTypingStart          = "typing_start"
	InboundTypeTypingStop           = "typing_stop"
	InboundTypeSendFriendRequest    = "send_friend_request"
	InboundTypeRespondFriendRequest = "respond_friend_request"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound event names.
const (
	EventPresenceSnapshot      = "presence_snapshot"
	EventUserOnline            = "user_online"
	EventUserOffline           = "user_offline"
	EventPrivateMessage        = "private_message"
	EventGroupMessage          = "group_message"
	EventMessageBlocked        = "message_blocked"
	EventMessagesRead          = "messages_read"
	EventUserTyping            = "user_typing"
	EventUserStoppedTyping     = "user_stopped_typing"
	EventNewFriendRequest      = "new_friend_request"
	EventFriendRequestAccepted = "friend_request_accepted"
	EventFriendRequestAck      = "friend_request_ack"
	EventFriendRequestError    = "friend_request_error"
	EventFriendResponseAck     = "friend_response_ack"
	EventFriendResponseError   = "friend_response_error"
	EventGroupRenamed          = "group_renamed"
	EventGroupThemeUpdated     = "group_theme_updated"
	EventGroupMemberLeft       = "group_member_left"
	EventGroupDisbanded        = "group_disbanded"
	EventSessionReplaced       = "session_replaced"
)

// MaxBodyLength bounds message bodies in characters.
const MaxBodyLength = 4000

// HelloData authenticates a connection that did not present a token on upgrade.
type HelloData struct {
	Token    string `json:"token" validate:"required"`
	Protocol int    `json:"protocol,omitempty"`
}

// SetVisibilityData toggles whether friends see the user online.
type SetVisibilityData struct {
	Visible *bool `json:"visible" validate:"required"`
}

// SendPrivateData is a one-to-one message from the client.
type SendPrivateData struct {
	ToUserID int64  `json:"to_user_id" validate:"required,gt=0"`
	Body     string `json:"body" validate:"required,max=4000"`
	Kind     string `json:"kind,omitempty" validate:"omitempty,oneof=text image"`
}

// SendGroupData is a group message from the client.
type SendGroupData struct {
	GroupID int64  `json:"group_id" validate:"required,gt=0"`
	Body    string `json:"body" validate:"required,max=4000"`
	Kind    string `json:"kind,omitempty" validate:"omitempty,oneof=text image"`
}

// MarkReadData marks everything from PeerID as read.
type MarkReadData struct {
	PeerID int64 `json:"peer_id" validate:"required,gt=0"`
}

// TypingData targets exactly one user or one group.
type TypingData struct {
	ToUserID int64 `json:"to_user_id,omitempty" validate:"required_without=GroupID,excluded_with=GroupID"`
	GroupID  int64 `json:"group_id,omitempty" validate:"required_without=ToUserID"`
}

// FriendRequestData asks ReceiverID for friendship.
type FriendRequestData struct {
	ReceiverID int64 `json:"receiver_id" validate:"required,gt=0"`
}

// FriendResponseData answers a request sent by SenderID.
type FriendResponseData struct {
	SenderID int64  `json:"sender_id" validate:"required,gt=0"`
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// PresenceSnapshot lists friends that are online and visible.
type PresenceSnapshot struct {
	OnlineUserIDs []int64 `json:"online_user_ids"`
}

// PresenceChange reports a single friend going online or offline.
type PresenceChange struct {
	UserID int64 `json:"user_id"`
}

// EventMessage is a delivered private or group message.
type EventMessage struct {
	ID             int64  `json:"id"`
	SenderID       int64  `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	SenderAvatar   string `json:"sender_avatar_url,omitempty"`
	ReceiverID     int64  `json:"receiver_id,omitempty"`
	GroupID        int64  `json:"group_id,omitempty"`
	Body           string `json:"body"`
	Kind           string `json:"kind"`
	IsRead         bool   `json:"is_read"`
	TS             int64  `json:"ts"`
}

// MessageBlocked tells the sender a message was not delivered.
type MessageBlocked struct {
	ToUserID int64  `json:"to_user_id"`
	Reason   string `json:"reason"`
}

// MessagesRead tells a sender their messages were read.
type MessagesRead struct {
	ReaderID   int64  `json:"reader_id"`
	ReaderName string `json:"reader_name"`
}

// Typing relays a typing indicator.
type Typing struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	GroupID  int64  `json:"group_id,omitempty"`
}

// Profile is the public part of a user.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// FriendRequestAck confirms a stored friend request.
type FriendRequestAck struct {
	ReceiverID int64 `json:"receiver_id"`
}

// FriendResponseAck confirms a stored friend response.
type FriendResponseAck struct {
	SenderID int64  `json:"sender_id"`
	Decision string `json:"decision"`
}

// Notice carries a human-readable message.
type Notice struct {
	Message string `json:"message"`
}

// GroupRenamed carries a new group name.
type GroupRenamed struct {
	GroupID int64  `json:"group_id"`
	Name    string `json:"name"`
}

// GroupThemeUpdated carries a new chat theme.
type GroupThemeUpdated struct {
	GroupID int64  `json:"group_id"`
	Theme   string `json:"theme"`
}

// GroupNotice is a system message posted to a group.
type GroupNotice struct {
	GroupID int64  `json:"group_id"`
	UserID  int64  `json:"user_id,omitempty"`
	Text    string `json:"text"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
