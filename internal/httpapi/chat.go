package httpapi

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/remindbot/internal/protocol"
)

const (
	maxMessageBytes = 64 << 10
	readTimeout     = 120 * time.Second
	pingInterval    = 30 * time.Second
	writeTimeout    = 10 * time.Second
)

var errUserMismatch = errors.New("message user_id does not match the connection")

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "query parameter user_id is required")
		return
	}
	if s.bot == nil || s.hub == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "bot not configured")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	connID, outbound, detach := s.hub.Attach(userID)
	defer detach()
	log.Printf("httpapi: ws connected user=%s conn=%s", userID, connID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, cancel, conn, outbound)
	}()

	conn.SetReadLimit(maxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err == nil && protocol.UserOf(parsed) != userID {
			err = errUserMismatch
		}
		if err != nil {
			s.hub.Notify(userID, protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				UserID: userID,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			})
			continue
		}
		if err := s.route(ctx, parsed); err != nil {
			log.Printf("httpapi: handle message user=%s: %v", userID, err)
		}
	}

	cancel()
	detach()
	<-writerDone
	log.Printf("httpapi: ws disconnected user=%s conn=%s", userID, connID)
}

func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, outbound <-chan any) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				return
			}
		case msg, ok := <-outbound:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				s.metrics.ObserveDropped("write_error")
				cancel()
				return
			}
			if t, ok := protocol.TypeOf(msg); ok {
				s.metrics.ObserveWSMessage("outbound", string(t))
			}
		}
	}
}

// handlePostMessage accepts one inbound message over plain HTTP. Replies are
// delivered to the user's sockets or outbox.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	if s.bot == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "bot not configured")
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	parsed, err := protocol.ParseClientMessage(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_client_message", err.Error())
		return
	}
	if err := s.route(r.Context(), parsed); err != nil {
		respondError(w, http.StatusInternalServerError, "bot_error", err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"status":  "accepted",
		"user_id": protocol.UserOf(parsed),
	})
}

func (s *Server) handleOutbox(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "query parameter user_id is required")
		return
	}
	if s.hub == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "hub not configured")
		return
	}
	messages := s.hub.Drain(userID)
	if messages == nil {
		messages = []any{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"messages": messages,
	})
}

func (s *Server) route(ctx context.Context, msg any) error {
	if t, ok := protocol.TypeOf(msg); ok {
		s.metrics.ObserveWSMessage("inbound", string(t))
	}
	switch m := msg.(type) {
	case protocol.UserText:
		return s.bot.HandleText(ctx, m.UserID, m.Text)
	case protocol.UserCallback:
		return s.bot.HandleCallback(ctx, m.UserID, m.MessageID, m.Data)
	default:
		return protocol.ErrUnsupportedType
	}
}
