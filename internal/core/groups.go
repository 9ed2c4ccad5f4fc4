package core

// Group administration happens over HTTP; these calls push the outcome to
// the live sessions subscribed to the group.

// NotifyGroupRenamed tells subscribers about a new group name.
func (h *Hub) NotifyGroupRenamed(groupID int64, name string) {
	h.topics.Broadcast(groupID, &Event{Kind: EventGroupRenamed, GroupID: groupID, Text: name}, nil)
}

// NotifyGroupTheme tells subscribers about a new chat theme.
func (h *Hub) NotifyGroupTheme(groupID int64, theme string) {
	h.topics.Broadcast(groupID, &Event{Kind: EventGroupThemeUpdated, GroupID: groupID, Text: theme}, nil)
}

// NotifyMemberLeft unsubscribes the leaving user and posts a system message
// to the remaining subscribers.
func (h *Hub) NotifyMemberLeft(groupID, userID int64, username string) {
	if sess, ok := h.registry.Lookup(userID); ok {
		h.topics.Leave(groupID, sess)
	}
	h.topics.Broadcast(groupID, &Event{
		Kind:     EventGroupMemberLeft,
		GroupID:  groupID,
		UserID:   userID,
		Username: username,
		Text:     username + " has left the group.",
	}, nil)
}

// NotifyGroupDisbanded tells subscribers the group is gone and drops its topic.
func (h *Hub) NotifyGroupDisbanded(groupID int64, name string) {
	h.topics.Broadcast(groupID, &Event{
		Kind:    EventGroupDisbanded,
		GroupID: groupID,
		Text:    "The group \"" + name + "\" has been disbanded.",
	}, nil)
	h.topics.Drop(groupID)
}
