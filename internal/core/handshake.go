package core

import (
	"context"
	"errors"

	"github.com/vovakirdan/socialchat-server/internal/store"
)

// sendFriendRequest stores a pending edge and notifies the receiver.
func (h *Hub) sendFriendRequest(ctx context.Context, sess *Session, receiverID int64) error {
	if receiverID == sess.UserID {
		return badRequest("You cannot send a friend request to yourself.")
	}
	if _, err := h.store.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("User not found.")
		}
		return persistence("load receiver", err)
	}

	if _, err := h.store.UpsertFriendRequest(ctx, sess.UserID, receiverID); err != nil {
		if errors.Is(err, store.ErrBlockedEdge) {
			return blocked("Friend request cannot be sent to this user.")
		}
		return persistence("save friend request", err)
	}

	if peer, ok := h.registry.Lookup(receiverID); ok {
		h.deliver(peer, &Event{Kind: EventNewFriendRequest, Profile: sess.Profile()})
	}
	sess.Send(&Event{Kind: EventFriendRequestAck, UserID: receiverID})
	return nil
}

// respondFriendRequest resolves a pending request sent by senderID.
func (h *Hub) respondFriendRequest(ctx context.Context, sess *Session, senderID int64, decision string) error {
	var accept bool
	switch decision {
	case DecisionAccepted:
		accept = true
	case DecisionRejected:
	default:
		return badRequest("Decision must be accepted or rejected.")
	}

	ok, err := h.store.RespondFriendRequest(ctx, sess.UserID, senderID, accept)
	if err != nil {
		return persistence("save friend response", err)
	}
	if !ok {
		return conflict("Friend request not found or already handled.")
	}

	if accept {
		if peer, ok := h.registry.Lookup(senderID); ok {
			h.deliver(peer, &Event{Kind: EventFriendRequestAccepted, Profile: sess.Profile()})
		}
	}
	sess.Send(&Event{Kind: EventFriendResponseAck, UserID: senderID, Decision: decision})
	return nil
}
