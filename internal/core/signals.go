package core

// relayTyping forwards a typing indicator to one user or a group. Nothing is
// persisted and offline targets are ignored.
func (h *Hub) relayTyping(sess *Session, cmd *Command, started bool) error {
	kind := EventUserStoppedTyping
	if started {
		kind = EventUserTyping
	}

	switch {
	case cmd.TargetUserID != 0 && cmd.GroupID != 0:
		return badRequest("typing target must be a user or a group, not both")
	case cmd.GroupID != 0:
		h.topics.Broadcast(cmd.GroupID, &Event{
			Kind:     kind,
			UserID:   sess.UserID,
			Username: sess.Name,
			GroupID:  cmd.GroupID,
		}, sess)
	case cmd.TargetUserID != 0:
		if peer, ok := h.registry.Lookup(cmd.TargetUserID); ok && peer != sess {
			h.deliver(peer, &Event{Kind: kind, UserID: sess.UserID, Username: sess.Name})
		}
	default:
		return badRequest("typing target is required")
	}
	return nil
}
