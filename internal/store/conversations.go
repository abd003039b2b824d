package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartline-ai/counseling-platform/internal/model"
	"github.com/heartline-ai/counseling-platform/pkg/metrics"
)

// ErrNotFound is returned when a requested entity does not exist or is not
// visible to the tenant.
var ErrNotFound = errors.New("not found")

// ConversationStore is the tenant-scoped conversation registry.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
}

// NewConversationStore creates a conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{conversations: make(map[string]*model.Conversation)}
}

// Create creates a new conversation.
func (s *ConversationStore) Create(ctx context.Context, tenantID, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	now := time.Now()
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TenantID:  tenantID,
		UserID:    userID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  req.Metadata,
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	metrics.ConversationsTotal.WithLabelValues(tenantID).Inc()
	return conv, nil
}

// Get retrieves a conversation visible to the tenant.
func (s *ConversationStore) Get(ctx context.Context, tenantID, conversationID string) (*model.Conversation, error) {
	s.mu.RLock()
	conv, exists := s.conversations[conversationID]
	s.mu.RUnlock()

	if !exists || conv.TenantID != tenantID || conv.Deleted {
		return nil, ErrNotFound
	}
	return conv, nil
}

// List retrieves conversations for a tenant with simple pagination.
func (s *ConversationStore) List(ctx context.Context, tenantID string, limit, offset int) (*model.ListConversationsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var convs []model.Conversation
	for _, conv := range s.conversations {
		if conv.TenantID == tenantID && !conv.Deleted {
			convs = append(convs, *conv)
		}
	}

	// Map iteration order is random; pagination windows need a stable order.
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.Before(convs[j].CreatedAt)
	})

	total := len(convs)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &model.ListConversationsResponse{
		Conversations: convs[start:end],
		Total:         total,
		HasMore:       end < total,
	}, nil
}

// Touch bumps the message count and updated-at after a persisted turn.
func (s *ConversationStore) Touch(ctx context.Context, tenantID, conversationID string, messages int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[conversationID]
	if !exists || conv.TenantID != tenantID {
		return ErrNotFound
	}
	conv.MessageCount += messages
	conv.UpdatedAt = time.Now()
	return nil
}

// Delete soft deletes a conversation.
func (s *ConversationStore) Delete(ctx context.Context, tenantID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[conversationID]
	if !exists || conv.TenantID != tenantID {
		return ErrNotFound
	}
	conv.Deleted = true
	conv.UpdatedAt = time.Now()
	return nil
}
