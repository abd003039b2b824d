package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/heartline-ai/counseling-platform/internal/loopwatch"
	"github.com/heartline-ai/counseling-platform/internal/middleware"
	"github.com/heartline-ai/counseling-platform/internal/store"
	"github.com/heartline-ai/counseling-platform/pkg/logger"
)

// ScanHandler exposes the out-of-band stuck-loop scan.
type ScanHandler struct {
	detector      *loopwatch.Detector
	conversations *store.ConversationStore
	logger        *logger.Logger
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(detector *loopwatch.Detector, conversations *store.ConversationStore, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		detector:      detector,
		conversations: conversations,
		logger:        log,
	}
}

// Scan handles POST /api/v1/conversations/{id}/scan. It re-reads the full
// persisted history, so it belongs in a scheduled sweep or post-message
// hook, not the reply critical path.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.detector.Scan(ctx, tenantID, conversationID)
	if err != nil {
		h.logger.Error("stuck-loop scan failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "scan failed")
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
