package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

// ReportStore persists longitudinal assessment reports, read newest-first
// by the persona selector.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string][]model.AssessmentReport // keyed by conversation ID
}

// NewReportStore creates an assessment report store.
func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string][]model.AssessmentReport)}
}

// Append records a new assessment snapshot for a conversation.
func (s *ReportStore) Append(ctx context.Context, report *model.AssessmentReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *report
	stored.ID = uuid.Must(uuid.NewV7()).String()
	stored.CreatedAt = time.Now()
	s.reports[stored.ConversationID] = append(s.reports[stored.ConversationID], stored)
	return nil
}

// RecentFirst returns up to limit reports for a conversation ordered by
// recency, newest first.
func (s *ReportStore) RecentFirst(ctx context.Context, conversationID string, limit int) ([]model.AssessmentReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.reports[conversationID]
	var out []model.AssessmentReport
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
