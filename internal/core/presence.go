package core

import (
	"context"
	"slices"

	"github.com/samber/lo"
)

// liveFriends returns the registered sessions of userID's accepted friends.
func (h *Hub) liveFriends(ctx context.Context, userID int64) ([]*Session, error) {
	ids, err := h.store.ListAcceptedFriendIDs(ctx, userID)
	if err != nil {
		return nil, persistence("list friends", err)
	}
	return lo.FilterMap(ids, func(id int64, _ int) (*Session, bool) {
		return h.registry.Lookup(id)
	}), nil
}

// visibleIDs keeps the friends whose stored preference shows them online.
func (h *Hub) visibleIDs(ctx context.Context, friends []*Session) ([]int64, error) {
	ids := make([]int64, 0, len(friends))
	for _, f := range friends {
		visible, err := h.store.GetVisibility(ctx, f.UserID)
		if err != nil {
			return nil, persistence("load visibility", err)
		}
		if visible {
			ids = append(ids, f.UserID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (h *Hub) broadcastPresence(friends []*Session, userID int64, online bool) {
	kind := EventUserOffline
	if online {
		kind = EventUserOnline
	}
	for _, f := range friends {
		h.deliver(f, &Event{Kind: kind, UserID: userID})
	}
}

// announceOnline marks sess online, tells visible friends and sends the
// presence snapshot. A hidden user gets an empty snapshot and nobody is told.
func (h *Hub) announceOnline(ctx context.Context, sess *Session) error {
	visible, err := h.store.GetVisibility(ctx, sess.UserID)
	if err != nil {
		sess.Send(&Event{Kind: EventPresenceSnapshot, UserIDs: []int64{}})
		return persistence("load visibility", err)
	}
	sess.setVisible(visible)

	if err := h.store.SetLastSeen(ctx, sess.UserID, nil); err != nil {
		h.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("clear last seen")
	}

	return h.publishPresence(ctx, sess, visible)
}

func (h *Hub) publishPresence(ctx context.Context, sess *Session, visible bool) error {
	if !visible {
		sess.Send(&Event{Kind: EventPresenceSnapshot, UserIDs: []int64{}})
		return nil
	}

	friends, err := h.liveFriends(ctx, sess.UserID)
	if err != nil {
		sess.Send(&Event{Kind: EventPresenceSnapshot, UserIDs: []int64{}})
		return err
	}
	h.broadcastPresence(friends, sess.UserID, true)

	online, err := h.visibleIDs(ctx, friends)
	if err != nil {
		sess.Send(&Event{Kind: EventPresenceSnapshot, UserIDs: []int64{}})
		return err
	}
	sess.Send(&Event{Kind: EventPresenceSnapshot, UserIDs: online})
	return nil
}

// setVisibility persists the preference and re-announces presence.
// Hiding looks like going offline to friends.
func (h *Hub) setVisibility(ctx context.Context, sess *Session, visible bool) error {
	if err := h.store.SetVisibility(ctx, sess.UserID, visible); err != nil {
		return persistence("save visibility", err)
	}
	sess.setVisible(visible)

	if visible {
		return h.publishPresence(ctx, sess, true)
	}

	friends, err := h.liveFriends(ctx, sess.UserID)
	if err != nil {
		return err
	}
	h.broadcastPresence(friends, sess.UserID, false)
	sess.Send(&Event{Kind: EventPresenceSnapshot, UserIDs: []int64{}})
	return nil
}

// announceOffline records last seen and tells friends when the user was visible.
func (h *Hub) announceOffline(ctx context.Context, sess *Session) error {
	now := h.now()
	if err := h.store.SetLastSeen(ctx, sess.UserID, &now); err != nil {
		h.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("save last seen")
	}
	if !sess.Visible() {
		return nil
	}

	friends, err := h.liveFriends(ctx, sess.UserID)
	if err != nil {
		return err
	}
	h.broadcastPresence(friends, sess.UserID, false)
	return nil
}
