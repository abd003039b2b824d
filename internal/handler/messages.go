package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/heartline-ai/counseling-platform/internal/engine"
	"github.com/heartline-ai/counseling-platform/internal/middleware"
	"github.com/heartline-ai/counseling-platform/internal/model"
	natsclient "github.com/heartline-ai/counseling-platform/internal/nats"
	"github.com/heartline-ai/counseling-platform/internal/store"
	"github.com/heartline-ai/counseling-platform/pkg/logger"
)

// MessageHandler handles the per-turn evaluate entry point and message
// listing.
type MessageHandler struct {
	engine        *engine.Engine
	streamManager *natsclient.StreamManager
	conversations *store.ConversationStore
	logger        *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(eng *engine.Engine, streamManager *natsclient.StreamManager, conversations *store.ConversationStore, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		engine:        eng,
		streamManager: streamManager,
		conversations: conversations,
		logger:        log,
	}
}

// List handles GET /api/v1/conversations/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.conversations.Get(ctx, tenantID, conversationID); err != nil {
		writeError(w, r, http.StatusNotFound, "conversation not found")
		return
	}

	afterSequence := uint64(0)
	limit := 50
	if seq := r.URL.Query().Get("after_sequence"); seq != "" {
		if parsed, err := strconv.ParseUint(seq, 10, 64); err == nil {
			afterSequence = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	messages, lastSeq, hasMore, err := h.streamManager.GetMessages(ctx, tenantID, conversationID, afterSequence, limit)
	if err != nil {
		h.logger.Error("failed to get messages", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to get messages")
		return
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages:     messages,
		HasMore:      hasMore,
		LastSequence: lastSeq,
	})
}

// Evaluate handles POST /api/v1/conversations/{id}/messages. It persists
// the user message, runs the full triage turn, and returns the routed
// reply.
func (h *MessageHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.conversations.Get(ctx, tenantID, conversationID); err != nil {
		writeError(w, r, http.StatusNotFound, "conversation not found")
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.engine.Evaluate(ctx, tenantID, conversationID, &req)
	if err != nil {
		if errors.Is(err, engine.ErrGenerationFailed) {
			writeError(w, r, http.StatusBadGateway, "generation failed, please retry")
			return
		}
		h.logger.Error("evaluation failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "failed to process message")
		return
	}

	h.conversations.Touch(ctx, tenantID, conversationID, 2)

	writeJSON(w, http.StatusOK, resp)
}
