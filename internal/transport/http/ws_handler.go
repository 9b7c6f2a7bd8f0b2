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

	"github.com/vovakirdan/presence-chat/internal/config"
	"github.com/vovakirdan/presence-chat/internal/core"
	"github.com/vovakirdan/presence-chat/internal/proto"
	"github.com/vovakirdan/presence-chat/internal/utils"
)

// Hub is the part of core.Hub the transport drives.
type Hub interface {
	RegisterSession(s *core.Session) bool
	UnregisterSession(s *core.Session)
	Dispatch(s *core.Session, cmd core.Command) bool
}

// WSHandler upgrades HTTP connections and bridges them to core sessions.
type WSHandler struct {
	hub             Hub
	maxMessageBytes int64
	sessionBuffer   int
	rateLimit       int
	log             *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Hub, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:             hub,
		maxMessageBytes: cfg.MaxMessageBytes,
		sessionBuffer:   cfg.SessionBuffer,
		rateLimit:       cfg.RateLimitPerMinute,
		log:             logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	session := core.NewSession(utils.NewID(), h.sessionBuffer)
	if !h.hub.RegisterSession(session) {
		h.log.Debug().Str("session_id", session.ID).Msg("hub stopped, rejecting ws session")
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.UnregisterSession(session)

	h.log.Debug().Str("session_id", session.ID).Str("remote", r.RemoteAddr).Msg("ws session opened")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

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
			h.log.Warn().Err(err).Str("session_id", session.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Debug().Str("session_id", session.ID).Msg("ws session closed")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	limiter := newRateLimiter(h.rateLimit, time.Minute)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		var (
			cmd      *core.Command
			protoErr *proto.Error
		)
		if limiter.allow() {
			cmd, protoErr = inboundToCommand(inbound)
		} else {
			protoErr = &proto.Error{Code: proto.ErrCodeRateLimited, Msg: "too many messages"}
		}
		if protoErr != nil {
			h.log.Debug().Str("session_id", session.ID).Str("type", inbound.Type).Str("code", protoErr.Code).Msg("rejected inbound frame")
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		h.hub.Dispatch(session, *cmd)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		select {
		case event, ok := <-session.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", session.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
