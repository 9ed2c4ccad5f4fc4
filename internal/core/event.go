package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventPresenceSnapshot lists friends currently online and visible.
	EventPresenceSnapshot EventKind = iota
	// EventUserOnline tells a friend that UserID came online.
	EventUserOnline
	// EventUserOffline tells a friend that UserID went offline or hid.
	EventUserOffline
	// EventPrivateMessage delivers a private message.
	EventPrivateMessage
	// EventGroupMessage delivers a group message.
	EventGroupMessage
	// EventMessageBlocked tells the sender the recipient blocked them.
	EventMessageBlocked
	// EventMessagesRead tells a sender that Username read their messages.
	EventMessagesRead
	// EventUserTyping relays a typing start.
	EventUserTyping
	// EventUserStoppedTyping relays a typing stop.
	EventUserStoppedTyping
	// EventNewFriendRequest notifies the receiver of a request.
	EventNewFriendRequest
	// EventFriendRequestAccepted notifies the original sender.
	EventFriendRequestAccepted
	// EventFriendRequestAck confirms a request was stored.
	EventFriendRequestAck
	// EventFriendRequestError reports a failed request.
	EventFriendRequestError
	// EventFriendResponseAck confirms a response was stored.
	EventFriendResponseAck
	// EventFriendResponseError reports a failed response.
	EventFriendResponseError
	// EventGroupRenamed notifies members of a new group name.
	EventGroupRenamed
	// EventGroupThemeUpdated notifies members of a new chat theme.
	EventGroupThemeUpdated
	// EventGroupMemberLeft is a system message about a departed member.
	EventGroupMemberLeft
	// EventGroupDisbanded notifies members that the group is gone.
	EventGroupDisbanded
	// EventSessionReplaced tells a superseded connection about its replacement.
	EventSessionReplaced
	// EventError notifies clients about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind
	UserID   int64
	UserIDs  []int64
	Username string
	GroupID  int64
	Message  *Message
	Profile  *Profile
	Decision string
	Text     string
	Error    *CoreError
}

func errorEvent(err *CoreError) *Event {
	return &Event{Kind: EventError, Error: err}
}
