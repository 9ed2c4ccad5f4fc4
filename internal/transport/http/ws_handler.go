package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat-server/internal/auth"
	"github.com/vovakirdan/socialchat-server/internal/config"
	"github.com/vovakirdan/socialchat-server/internal/core"
	"github.com/vovakirdan/socialchat-server/internal/proto"
)

// Hub is the part of the core the transport depends on.
type Hub interface {
	Connect(ctx context.Context, userID int64, displayName string) (*core.Session, error)
	Serve(ctx context.Context, sess *core.Session)
	Online() int

	NotifyGroupRenamed(groupID int64, name string)
	NotifyGroupTheme(groupID int64, theme string)
	NotifyMemberLeft(groupID, userID int64, username string)
	NotifyGroupDisbanded(groupID int64, name string)
}

// WSHandler upgrades HTTP connections and bridges them to core sessions.
type WSHandler struct {
	hub  Hub
	auth *auth.Service
	cfg  *config.Config
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, auth: authService, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	// A token on the upgrade request is checked before accepting.
	var identity *auth.Identity
	if token := requestToken(r); token != "" {
		id, err := h.auth.Authenticate(token)
		if err != nil {
			h.log.Debug().Err(err).Msg("ws upgrade rejected")
			stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
			return
		}
		identity = id
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.AllowedOrigins,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	conn.SetReadLimit(h.cfg.MaxMessageBytes)

	if identity == nil {
		identity, err = h.awaitHello(ctx, conn)
		if err != nil {
			h.log.Debug().Err(err).Msg("ws hello rejected")
			_ = wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: core.ErrCodeUnauthorized, Msg: err.Error()},
			})
			conn.Close(websocket.StatusPolicyViolation, "unauthorized")
			return
		}
	}

	sess, err := h.hub.Connect(ctx, identity.UserID, identity.DisplayName)
	if err != nil {
		code := core.ErrCodeInternal
		if errors.Is(err, core.ErrAuthentication) {
			code = core.ErrCodeUnauthorized
		}
		h.log.Warn().Err(err).Int64("user_id", identity.UserID).Msg("ws connect rejected")
		_ = wsjson.Write(ctx, conn, proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: code, Msg: "connection rejected"},
		})
		conn.Close(websocket.StatusPolicyViolation, "unauthorized")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	served := make(chan struct{})
	go func() {
		h.hub.Serve(ctx, sess)
		close(served)
	}()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine and the command loop
	<-errCh
	<-served

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// awaitHello reads the first frame, which must be a hello carrying a token.
func (h *WSHandler) awaitHello(ctx context.Context, conn *websocket.Conn) (*auth.Identity, error) {
	timeout := h.cfg.HelloTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	helloCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var inbound proto.Inbound
	if err := wsjson.Read(helloCtx, conn, &inbound); err != nil {
		return nil, errors.New("hello not received")
	}
	if inbound.Type != proto.InboundTypeHello {
		return nil, errors.New("first message must be hello")
	}

	var hello proto.HelloData
	if err := proto.Decode(inbound.Data, &hello); err != nil {
		return nil, errors.New("token is required")
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		return nil, errors.New("unsupported protocol version")
	}

	identity, err := h.auth.Authenticate(hello.Token)
	if err != nil {
		return nil, errors.New("invalid token")
	}
	return identity, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	limiter := newRateLimiter(h.cfg.RateLimitPerMinute)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("read ws inbound")
			}
			return err
		}

		if !limiter.allow() {
			sess.Send(protocolError(core.ErrCodeRateLimited, "rate limit exceeded"))
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			sess.Send(protocolError(protoErr.Code, protoErr.Msg))
			continue
		}

		select {
		case sess.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		select {
		case event := <-sess.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", sess.ID).Msg("write ws event")
				return err
			}
		case <-sess.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func protocolError(code, msg string) *core.Event {
	return &core.Event{Kind: core.EventError, Error: core.NewError(code, msg)}
}

// requestToken looks for a bearer header first, then the token query parameter.
func requestToken(r *stdhttp.Request) string {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return r.URL.Query().Get("token")
}
