package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat-server/internal/store"
)

const (
	defaultOperationTimeout  = 5 * time.Second
	defaultDisconnectTimeout = 5 * time.Second
)

// Options tunes the hub. Zero values fall back to defaults.
type Options struct {
	SessionBuffer     int
	OperationTimeout  time.Duration
	DisconnectTimeout time.Duration
}

// Hub coordinates live sessions: presence, message routing, ephemeral
// signals and friend handshakes. It is safe for concurrent use; each
// session is served by its own goroutine.
type Hub struct {
	store    store.Store
	registry *Registry
	topics   *Topics
	log      *zerolog.Logger
	opts     Options
	now      func() time.Time
}

// NewHub constructs a Hub backed by st.
func NewHub(st store.Store, logger *zerolog.Logger, opts Options) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.SessionBuffer <= 0 {
		opts.SessionBuffer = defaultSessionBuffer
	}
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = defaultOperationTimeout
	}
	if opts.DisconnectTimeout <= 0 {
		opts.DisconnectTimeout = defaultDisconnectTimeout
	}
	return &Hub{
		store:    st,
		registry: NewRegistry(),
		topics:   NewTopics(),
		log:      logger,
		opts:     opts,
		now:      time.Now,
	}
}

// Online returns the number of live sessions.
func (h *Hub) Online() int {
	return h.registry.Online()
}

// Session returns the live session of userID, if any.
func (h *Hub) Session(userID int64) (*Session, bool) {
	return h.registry.Lookup(userID)
}

// Connect admits an authenticated user. It registers the session, runs
// presence and subscribes the session to its accepted groups. A previous
// session of the same user is superseded.
//
// Only a missing user fails the connection; other persistence failures are
// logged and reported to the new session as an error event.
func (h *Hub) Connect(ctx context.Context, userID int64, displayName string) (*Session, error) {
	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &CoreError{Code: ErrCodeUnauthorized, Message: "user no longer exists", kind: ErrAuthentication}
		}
		return nil, persistence("load user", err)
	}

	name := displayName
	if name == "" {
		name = user.Username
	}
	sess := NewSession(user.ID, name, user.AvatarURL, h.opts.SessionBuffer)

	unlock := h.registry.LockUser(user.ID)
	defer unlock()

	if prev := h.registry.Register(sess); prev != nil {
		// The old connection stays open but no longer receives routed traffic.
		h.topics.LeaveAll(prev)
		prev.Send(&Event{Kind: EventSessionReplaced, Text: "signed in from another connection"})
		h.log.Info().Int64("user_id", user.ID).Str("session_id", prev.ID).Msg("session superseded")
	}

	if err := h.announceOnline(ctx, sess); err != nil {
		h.reportFailure(sess, err)
	}
	if err := h.subscribeGroups(ctx, sess); err != nil {
		h.reportFailure(sess, err)
	}

	h.log.Info().Int64("user_id", user.ID).Str("session_id", sess.ID).Msg("session connected")
	return sess, nil
}

// Serve processes commands from sess until ctx is done or the session is
// closed, then disconnects it.
func (h *Hub) Serve(ctx context.Context, sess *Session) {
	defer h.Disconnect(sess)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.Done():
			return
		case cmd := <-sess.Commands:
			if cmd == nil {
				continue
			}
			h.Handle(ctx, sess, cmd)
		}
	}
}

// Handle executes a single command on behalf of sess. Failures are sent
// back to sess as events.
func (h *Hub) Handle(ctx context.Context, sess *Session, cmd *Command) {
	// Work started for a connection completes even if the connection drops.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.opts.OperationTimeout)
	defer cancel()

	var err error
	switch cmd.Kind {
	case CommandSetVisibility:
		unlock := h.registry.LockUser(sess.UserID)
		err = h.setVisibility(opCtx, sess, cmd.Visible)
		unlock()
	case CommandSendPrivate:
		err = h.sendPrivate(opCtx, sess, cmd)
	case CommandSendGroup:
		err = h.sendGroup(opCtx, sess, cmd)
	case CommandMarkRead:
		err = h.markRead(opCtx, sess, cmd.TargetUserID)
	case CommandTypingStart:
		err = h.relayTyping(sess, cmd, true)
	case CommandTypingStop:
		err = h.relayTyping(sess, cmd, false)
	case CommandSendFriendRequest:
		err = h.sendFriendRequest(opCtx, sess, cmd.TargetUserID)
	case CommandRespondFriendRequest:
		err = h.respondFriendRequest(opCtx, sess, cmd.TargetUserID, cmd.Decision)
	default:
		err = badRequest("unknown command")
	}
	if err != nil {
		h.fail(sess, cmd, err)
	}
}

// Disconnect unregisters sess. Only the live session of a user records
// last seen and announces the user offline. It holds the user's lock, so a
// concurrent Connect of the same user observes either none or all of it.
// Safe to call more than once.
func (h *Hub) Disconnect(sess *Session) {
	if !sess.close() {
		return
	}
	h.topics.LeaveAll(sess)

	unlock := h.registry.LockUser(sess.UserID)
	defer unlock()

	if !h.registry.Unregister(sess) {
		h.log.Debug().Int64("user_id", sess.UserID).Str("session_id", sess.ID).Msg("superseded session closed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.DisconnectTimeout)
	defer cancel()

	if err := h.announceOffline(ctx, sess); err != nil {
		h.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("announce offline")
	}
	h.log.Info().Int64("user_id", sess.UserID).Str("session_id", sess.ID).Msg("session disconnected")
}

func (h *Hub) fail(sess *Session, cmd *Command, err error) {
	ce := toCoreError(err)
	if errors.Is(err, ErrPersistence) {
		h.log.Error().Err(err).Int64("user_id", sess.UserID).Int("command", int(cmd.Kind)).Msg("command failed")
	} else {
		h.log.Debug().Err(err).Int64("user_id", sess.UserID).Int("command", int(cmd.Kind)).Msg("command rejected")
	}

	switch {
	case cmd.Kind == CommandSendFriendRequest:
		sess.Send(&Event{Kind: EventFriendRequestError, Text: ce.Message, Error: ce})
	case cmd.Kind == CommandRespondFriendRequest:
		sess.Send(&Event{Kind: EventFriendResponseError, Text: ce.Message, Error: ce})
	case cmd.Kind == CommandSendPrivate && errors.Is(err, ErrBlocked):
		sess.Send(&Event{Kind: EventMessageBlocked, UserID: cmd.TargetUserID, Text: ce.Message})
	default:
		sess.Send(errorEvent(ce))
	}
}

func (h *Hub) reportFailure(sess *Session, err error) {
	h.log.Error().Err(err).Int64("user_id", sess.UserID).Msg("session setup")
	sess.Send(errorEvent(toCoreError(err)))
}

func (h *Hub) subscribeGroups(ctx context.Context, sess *Session) error {
	groupIDs, err := h.store.ListAcceptedGroupIDs(ctx, sess.UserID)
	if err != nil {
		return persistence("list groups", err)
	}
	for _, id := range groupIDs {
		h.topics.Join(id, sess)
	}
	return nil
}

// deliver sends ev to sess and logs when the event was dropped.
func (h *Hub) deliver(sess *Session, ev *Event) {
	if !sess.Send(ev) {
		h.log.Debug().Int64("user_id", sess.UserID).Int("event", int(ev.Kind)).Msg("event dropped")
	}
}
