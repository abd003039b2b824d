package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartline-ai/counseling-platform/internal/middleware"
	"github.com/heartline-ai/counseling-platform/internal/model"
	"github.com/heartline-ai/counseling-platform/internal/store"
	"github.com/heartline-ai/counseling-platform/pkg/logger"
)

// testRouter wires the conversation routes with a stub identity in place of
// the JWT middleware.
func testRouter(h *ConversationHandler, tenantID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.TenantIDKey, tenantID)
			ctx = context.WithValue(ctx, middleware.UserIDKey, "user-1")
			ctx = context.WithValue(ctx, middleware.CorrelationIDKey, "corr-123")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/conversations", h.Create)
	r.Get("/conversations", h.List)
	r.Get("/conversations/{id}", h.Get)
	r.Delete("/conversations/{id}", h.Delete)
	r.Get("/conversations/{id}/events", h.ListEvents)
	return r
}

func TestConversationEndpoints(t *testing.T) {
	conversations := store.NewConversationStore()
	events := store.NewEventStore()
	h := NewConversationHandler(conversations, events, logger.NewNop())
	router := testRouter(h, "tenant-1")

	// Create
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations",
		strings.NewReader(`{"title":"第一次咨询"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "tenant-1", created.TenantID)

	// Get
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// List
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Total)

	// Events starts empty
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+created.ID+"/events", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Delete, then gone
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/conversations/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationEndpointsRejectBadInput(t *testing.T) {
	conversations := store.NewConversationStore()
	events := store.NewEventStore()
	h := NewConversationHandler(conversations, events, logger.NewNop())
	router := testRouter(h, "tenant-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations",
		strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Error bodies echo the correlation ID for support reports.
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "corr-123", body["correlation_id"])
	assert.NotEmpty(t, body["error"])
}

func TestConversationsAreTenantScoped(t *testing.T) {
	conversations := store.NewConversationStore()
	events := store.NewEventStore()
	h := NewConversationHandler(conversations, events, logger.NewNop())

	conv, err := conversations.Create(context.Background(), "tenant-1", "user-1",
		&model.CreateConversationRequest{Title: "t"})
	require.NoError(t, err)

	otherTenant := testRouter(h, "tenant-2")
	rec := httptest.NewRecorder()
	otherTenant.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+conv.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
