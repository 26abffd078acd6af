package stream

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	chathandler "github.com/zhouzirui/cyber-shield/backend/internal/handler/chat"
	"github.com/zhouzirui/cyber-shield/backend/internal/logger"
	chatService "github.com/zhouzirui/cyber-shield/backend/internal/service/chat"
	"github.com/zhouzirui/cyber-shield/backend/internal/service/dialogue"
	"github.com/zhouzirui/cyber-shield/backend/pkg/utils"
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// Handler streams turn replies line by line via Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a new stream handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// StreamResponse is the payload of every event on the stream.
type StreamResponse struct {
	SessionID string           `json:"sessionId"`
	Content   string           `json:"content,omitempty"`
	Index     int              `json:"index,omitempty"`
	Outcome   dialogue.Outcome `json:"outcome,omitempty"`
	Sentiment string           `json:"sentiment,omitempty"`
	Finished  bool             `json:"finished,omitempty"`
}

// RegisterRoutes registers the streaming route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	message := r.URL.Query().Get("message")
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, sessionID, message); err != nil {
		if errors.Is(err, errStreamingUnsupported) {
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.RespondError(w, chathandler.StatusFor(err), err.Error())
	}
}

// HandleStreamRequest runs one turn and streams its reply. Errors are returned before any
// event has been written so the caller can still answer with a status code.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, message string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errStreamingUnsupported
	}

	reply, err := h.chatSvc.Converse(ctx, sessionID, message)
	if err != nil {
		logger.Warn("stream turn failed", "session", sessionID, "err", err)
		return err
	}

	utils.SetupSSEHeaders(w)

	utils.SendSSEEvent(w, flusher, "start", StreamResponse{SessionID: sessionID, Outcome: reply.Outcome})
	for i, line := range reply.Lines() {
		if ctx.Err() != nil {
			logger.Debug("stream client went away", "session", sessionID)
			return nil
		}
		utils.SendSSEEvent(w, flusher, "line", StreamResponse{SessionID: sessionID, Content: line, Index: i})
	}
	utils.SendSSEEvent(w, flusher, "sentiment", StreamResponse{SessionID: sessionID, Sentiment: string(reply.Sentiment)})
	utils.SendSSEEvent(w, flusher, "end", StreamResponse{SessionID: sessionID, Outcome: reply.Outcome, Finished: true})

	logger.Debug("stream completed", "session", sessionID, "outcome", reply.Outcome)
	return nil
}
