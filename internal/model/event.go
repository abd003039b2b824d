package model

import (
	"time"
)

// OptimizationEventType classifies a pathological conversation pattern.
type OptimizationEventType string

const (
	EventRepetition   OptimizationEventType = "REPETITION"
	EventRefusal      OptimizationEventType = "REFUSAL"
	EventPhaseTimeout OptimizationEventType = "PHASE_TIMEOUT"
)

// OptimizationEventStatus is the review lifecycle of an event.
type OptimizationEventStatus string

const (
	EventPending  OptimizationEventStatus = "PENDING"
	EventReviewed OptimizationEventStatus = "REVIEWED"
	EventResolved OptimizationEventStatus = "RESOLVED"
)

// OptimizationEvent is a persisted flag raised when a conversation has
// degenerated into a stuck pattern. At most one PENDING event may exist per
// (conversation, type, subtype).
type OptimizationEvent struct {
	ID             string                  `json:"id"`
	ConversationID string                  `json:"conversation_id"`
	TenantID       string                  `json:"tenant_id"`
	Type           OptimizationEventType   `json:"type"`
	Subtype        string                  `json:"subtype,omitempty"`
	Severity       int                     `json:"severity"`
	Summary        string                  `json:"summary"`
	Details        map[string]any          `json:"details,omitempty"`
	Status         OptimizationEventStatus `json:"status"`
	CreatedAt      time.Time               `json:"created_at"`
}

// StuckLoopResult is the outcome of an out-of-band conversation scan.
type StuckLoopResult struct {
	IsStuck  bool                  `json:"is_stuck"`
	Type     OptimizationEventType `json:"type,omitempty"`
	Severity int                   `json:"severity,omitempty"`
	Summary  string                `json:"summary,omitempty"`
	Details  map[string]any        `json:"details,omitempty"`
}
