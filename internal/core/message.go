package core

import (
	"time"

	"github.com/vovakirdan/socialchat-server/internal/store"
)

// Message is the domain model for a delivered chat message.
// GroupID is zero for private messages.
type Message struct {
	ID           int64
	SenderID     int64
	SenderName   string
	SenderAvatar string
	RecipientID  int64
	GroupID      int64
	Body         string
	Kind         store.MessageKind
	Read         bool
	CreatedAt    time.Time
}

// Profile is the public part of a user record.
type Profile struct {
	ID        int64
	Username  string
	AvatarURL string
}
