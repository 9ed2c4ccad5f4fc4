package core

import (
	"context"
	"errors"

	"github.com/vovakirdan/socialchat-server/internal/store"
)

// sendPrivate persists a one-to-one message and delivers it to both parties.
func (h *Hub) sendPrivate(ctx context.Context, sess *Session, cmd *Command) error {
	if cmd.TargetUserID == sess.UserID {
		return badRequest("cannot send a message to yourself")
	}
	if _, err := h.store.GetUserByID(ctx, cmd.TargetUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("recipient not found")
		}
		return persistence("load recipient", err)
	}

	edge, err := h.store.GetFriendship(ctx, sess.UserID, cmd.TargetUserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return persistence("load friendship", err)
	case edge.Status == store.FriendStatusBlocked && edge.ActionUserID != sess.UserID:
		return blocked("You cannot send messages to this user.")
	}

	stored := &store.PrivateMessage{
		SenderID:   sess.UserID,
		ReceiverID: cmd.TargetUserID,
		Body:       cmd.Body,
		Kind:       messageKind(cmd.MessageKind),
		CreatedAt:  h.now().UTC(),
	}
	if err := h.store.InsertPrivateMessage(ctx, stored); err != nil {
		return persistence("save private message", err)
	}

	msg := &Message{
		ID:           stored.ID,
		SenderID:     sess.UserID,
		SenderName:   sess.Name,
		SenderAvatar: sess.Avatar,
		RecipientID:  stored.ReceiverID,
		Body:         stored.Body,
		Kind:         stored.Kind,
		CreatedAt:    stored.CreatedAt,
	}
	ev := &Event{Kind: EventPrivateMessage, Message: msg}
	h.deliver(sess, ev)
	if peer, ok := h.registry.Lookup(cmd.TargetUserID); ok && peer != sess {
		h.deliver(peer, ev)
	}
	return nil
}

// sendGroup persists a group message and broadcasts it to the group topic.
// Membership is not checked; the sender gets the message only if subscribed.
func (h *Hub) sendGroup(ctx context.Context, sess *Session, cmd *Command) error {
	if _, err := h.store.GetGroup(ctx, cmd.GroupID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("group not found")
		}
		return persistence("load group", err)
	}

	stored := &store.GroupMessage{
		GroupID:   cmd.GroupID,
		SenderID:  sess.UserID,
		Body:      cmd.Body,
		Kind:      messageKind(cmd.MessageKind),
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.InsertGroupMessage(ctx, stored); err != nil {
		return persistence("save group message", err)
	}

	h.topics.Broadcast(cmd.GroupID, &Event{
		Kind: EventGroupMessage,
		Message: &Message{
			ID:           stored.ID,
			SenderID:     sess.UserID,
			SenderName:   sess.Name,
			SenderAvatar: sess.Avatar,
			GroupID:      stored.GroupID,
			Body:         stored.Body,
			Kind:         stored.Kind,
			CreatedAt:    stored.CreatedAt,
		},
	}, nil)
	return nil
}

// markRead flags the peer's messages as read and tells the peer.
func (h *Hub) markRead(ctx context.Context, sess *Session, peerID int64) error {
	if _, err := h.store.GetUserByID(ctx, peerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("user not found")
		}
		return persistence("load peer", err)
	}
	if _, err := h.store.MarkRead(ctx, peerID, sess.UserID); err != nil {
		return persistence("mark read", err)
	}
	if peer, ok := h.registry.Lookup(peerID); ok {
		h.deliver(peer, &Event{Kind: EventMessagesRead, UserID: sess.UserID, Username: sess.Name})
	}
	return nil
}

func messageKind(kind store.MessageKind) store.MessageKind {
	if kind == "" {
		return store.MessageKindText
	}
	return kind
}
