package core

import "github.com/vovakirdan/socialchat-server/internal/store"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSetVisibility toggles the online status preference.
	CommandSetVisibility CommandKind = iota
	// CommandSendPrivate sends a message to one user.
	CommandSendPrivate
	// CommandSendGroup sends a message to a group.
	CommandSendGroup
	// CommandMarkRead marks a peer's messages as read.
	CommandMarkRead
	// CommandTypingStart signals that the user started typing.
	CommandTypingStart
	// CommandTypingStop signals that the user stopped typing.
	CommandTypingStop
	// CommandSendFriendRequest asks another user for friendship.
	CommandSendFriendRequest
	// CommandRespondFriendRequest answers a pending friend request.
	CommandRespondFriendRequest
)

// Friend request decisions.
const (
	DecisionAccepted = "accepted"
	DecisionRejected = "rejected"
)

// Command represents an action requested by a client.
// TargetUserID is the recipient, peer, friend request receiver or original
// sender depending on Kind.
type Command struct {
	Kind         CommandKind
	Visible      bool
	TargetUserID int64
	GroupID      int64
	Body         string
	MessageKind  store.MessageKind
	Decision     string
}
