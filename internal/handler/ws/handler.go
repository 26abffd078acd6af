package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/cyber-shield/backend/internal/logger"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
	chatservice "github.com/zhouzirui/cyber-shield/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler carries a chat session over a WebSocket connection.
type Handler struct {
	chatSvc  *chatservice.Service
	store    knowledge.Store
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler.
func New(chatSvc *chatservice.Service, store knowledge.Store) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		store:   store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TextMessage is the data of an inbound "text" message.
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "session", sessionID, "err", err)
		return
	}
	defer conn.Close()

	logger.Info("websocket connected", "session", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, conn)

	h.send(conn, outgoingMessage{
		Type:      "connected",
		SessionID: sessionID,
		Data: map[string]any{
			"userName": session.UserName,
			"menu":     h.store.Menu(),
		},
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", "session", sessionID, "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(conn, "session mismatch")
			continue
		}

		if done := h.handleMessage(ctx, conn, sessionID, &msg); done {
			return
		}
	}
}

// handleMessage reports whether the conversation is over.
func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg *inboundMessage) bool {
	if msg.Type != "text" {
		h.sendError(conn, "unsupported message type: "+msg.Type)
		return false
	}

	var text TextMessage
	if err := json.Unmarshal(msg.Data, &text); err != nil || strings.TrimSpace(text.Text) == "" {
		h.sendError(conn, "text message requires non-empty text")
		return false
	}

	reply, err := h.chatSvc.Converse(ctx, sessionID, text.Text)
	if err != nil {
		h.sendError(conn, err.Error())
		return errors.Is(err, chatservice.ErrSessionNotFound) || errors.Is(err, chatservice.ErrSessionClosed)
	}

	h.send(conn, outgoingMessage{Type: "reply", SessionID: sessionID, Data: reply})

	if reply.Terminal() {
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(reply.Outcome))
		if err := conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeTimeout)); err != nil {
			logger.Debug("websocket close frame failed", "session", sessionID, "err", err)
		}
		logger.Info("websocket session finished", "session", sessionID, "outcome", reply.Outcome)
		return true
	}
	return false
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		logger.Warn("websocket write failed", "type", msg.Type, "err", err)
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, outgoingMessage{
		Type: "error",
		Data: map[string]string{"message": message},
	})
}

// pingLoop keeps idle connections alive. WriteControl is safe alongside the reader's writes.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
