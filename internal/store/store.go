package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// User represents a user in the system.
type User struct {
	ID               int64
	Username         string
	PasswordHash     string
	AvatarURL        string
	ShowOnlineStatus bool
	LastSeen         *time.Time // nil while the user is online
	CreatedAt        time.Time
}

// FriendStatus defines friend relationship status.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
	FriendStatusBlocked  FriendStatus = "blocked"
)

// Friendship is the single relationship row between two users.
// UserOneID is always the smaller id.
type Friendship struct {
	UserOneID    int64
	UserTwoID    int64
	Status       FriendStatus
	ActionUserID int64
	ChatTheme    string
	UpdatedAt    time.Time
}

// Other returns the id on the opposite side of the edge from userID.
func (f *Friendship) Other(userID int64) int64 {
	if f.UserOneID == userID {
		return f.UserTwoID
	}
	return f.UserOneID
}

// OrderPair returns both ids with the smaller one first.
func OrderPair(a, b int64) (one, two int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// MessageKind is the content type of a message body.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindImage MessageKind = "image"
)

// PrivateMessage is a persisted one-to-one message.
type PrivateMessage struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Body       string
	Kind       MessageKind
	Read       bool
	CreatedAt  time.Time
}

// GroupMessage is a persisted group message.
type GroupMessage struct {
	ID        int64
	GroupID   int64
	SenderID  int64
	Body      string
	Kind      MessageKind
	CreatedAt time.Time
}

// Group represents a chat group.
type Group struct {
	ID        int64
	Name      string
	CreatorID int64
	ChatTheme string
	CreatedAt time.Time
}

// MemberStatus is the state of a group membership.
type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
)

// GroupMember represents group membership.
type GroupMember struct {
	GroupID int64
	UserID  int64
	Status  MemberStatus
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetVisibility reports whether the user shows their online status.
	GetVisibility(ctx context.Context, userID int64) (bool, error)

	// SetVisibility persists the online status preference.
	SetVisibility(ctx context.Context, userID int64, visible bool) error

	// SetLastSeen stores the last seen timestamp; nil marks the user online.
	SetLastSeen(ctx context.Context, userID int64, at *time.Time) error
}

// FriendStore handles friend edge persistence.
type FriendStore interface {
	// GetFriendship retrieves the edge between two users in either order.
	GetFriendship(ctx context.Context, userID, otherID int64) (*Friendship, error)

	// ListAcceptedFriendIDs lists ids of users with an accepted edge to userID.
	ListAcceptedFriendIDs(ctx context.Context, userID int64) ([]int64, error)

	// UpsertFriendRequest sets the edge to pending with senderID as action user.
	// A blocked edge is left untouched and reported with ErrBlockedEdge.
	UpsertFriendRequest(ctx context.Context, senderID, receiverID int64) (*Friendship, error)

	// RespondFriendRequest atomically resolves a pending request sent by senderID.
	// It reports false when no pending edge with senderID as action user exists.
	RespondFriendRequest(ctx context.Context, responderID, senderID int64, accept bool) (bool, error)

	// BlockUser marks the edge blocked with blockerID as action user regardless of its status.
	BlockUser(ctx context.Context, blockerID, targetID int64) error
}

// ErrBlockedEdge is returned when a request would overwrite a block.
var ErrBlockedEdge = errors.New("relationship is blocked")

// GroupStore handles group and membership persistence.
type GroupStore interface {
	// CreateGroup creates a group with the creator accepted and members pending.
	CreateGroup(ctx context.Context, name string, creatorID int64, memberIDs []int64) (*Group, error)

	// GetGroup retrieves a group by ID.
	GetGroup(ctx context.Context, groupID int64) (*Group, error)

	// ListAcceptedGroupIDs lists groups where userID has accepted membership.
	ListAcceptedGroupIDs(ctx context.Context, userID int64) ([]int64, error)

	// RespondGroupInvitation accepts or drops a pending membership.
	RespondGroupInvitation(ctx context.Context, groupID, userID int64, accept bool) (bool, error)

	// RenameGroup updates the group name.
	RenameGroup(ctx context.Context, groupID int64, name string) error

	// SetGroupTheme updates the group chat theme.
	SetGroupTheme(ctx context.Context, groupID int64, theme string) error

	// RemoveMember deletes a membership. It reports false if none existed.
	RemoveMember(ctx context.Context, groupID, userID int64) (bool, error)

	// DeleteGroup removes the group with its memberships and messages.
	DeleteGroup(ctx context.Context, groupID int64) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertPrivateMessage persists msg and fills its ID.
	InsertPrivateMessage(ctx context.Context, msg *PrivateMessage) error

	// InsertGroupMessage persists msg and fills its ID.
	InsertGroupMessage(ctx context.Context, msg *GroupMessage) error

	// MarkRead flags unread messages from peerID to readerID as read
	// and returns how many rows changed.
	MarkRead(ctx context.Context, peerID, readerID int64) (int64, error)

	// ListPrivateMessages returns the conversation between two users, oldest first.
	ListPrivateMessages(ctx context.Context, userID, peerID int64, limit int) ([]*PrivateMessage, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	FriendStore
	GroupStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
