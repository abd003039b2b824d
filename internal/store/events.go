// Package store provides the persistence stores backing the engine. The
// implementations are in-memory maps guarded by mutexes (would be replaced
// with a database in production); the mutex gives the atomic
// check-then-insert semantics the event dedup invariant requires.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

// EventStore persists optimization events with at most one PENDING event
// per (conversation, type, subtype).
type EventStore struct {
	mu     sync.Mutex
	events map[string]*model.OptimizationEvent
}

// NewEventStore creates an event store.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string]*model.OptimizationEvent)}
}

// CreatePending inserts the event with PENDING status unless a PENDING
// event with the same (conversation, type, subtype) already exists. The
// lookup and insert happen under one lock. Returns whether a new event was
// written.
func (s *EventStore) CreatePending(ctx context.Context, event *model.OptimizationEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.events {
		if existing.Status == model.EventPending &&
			existing.ConversationID == event.ConversationID &&
			existing.Type == event.Type &&
			existing.Subtype == event.Subtype {
			return false, nil
		}
	}

	stored := *event
	stored.ID = uuid.Must(uuid.NewV7()).String()
	stored.Status = model.EventPending
	stored.CreatedAt = time.Now()
	s.events[stored.ID] = &stored
	return true, nil
}

// ListByConversation returns all events for a conversation, oldest first.
func (s *EventStore) ListByConversation(ctx context.Context, conversationID string) ([]model.OptimizationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.OptimizationEvent
	for _, e := range s.events {
		if e.ConversationID == conversationID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus transitions an event's review status.
func (s *EventStore) UpdateStatus(ctx context.Context, eventID string, status model.OptimizationEventStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	return nil
}
