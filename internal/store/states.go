package store

import (
	"sync"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

// StateStore caches the derived dialogue state per conversation. State is
// re-derivable from history; this cache just avoids replaying it every
// request.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]*model.DialogueState
}

// NewStateStore creates a dialogue state cache.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]*model.DialogueState)}
}

// State returns the cached state for a conversation, or a fresh initial
// state when none exists yet.
func (s *StateStore) State(conversationID string) *model.DialogueState {
	s.mu.RLock()
	state, ok := s.states[conversationID]
	s.mu.RUnlock()

	if !ok {
		return model.NewDialogueState()
	}
	return state.Clone()
}

// Put replaces the cached state for a conversation.
func (s *StateStore) Put(conversationID string, state *model.DialogueState) {
	s.mu.Lock()
	s.states[conversationID] = state.Clone()
	s.mu.Unlock()
}
