package model

import (
	"time"
)

// Conversation represents a counseling conversation thread.
type Conversation struct {
	ID           string            `json:"id"`
	TenantID     string            `json:"tenant_id"`
	UserID       string            `json:"user_id"`
	Title        string            `json:"title"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	MessageCount int               `json:"message_count,omitempty"`
	Deleted      bool              `json:"deleted,omitempty"`
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title    string            `json:"title"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	HasMore       bool           `json:"has_more"`
}

// CrisisResource is one emergency contact entry surfaced on the crisis
// route. The static list must reach the user even when generation fails.
type CrisisResource struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Available string `json:"available"`
}

// EvaluateResponse is the per-turn result of the triage engine.
type EvaluateResponse struct {
	Route              Route             `json:"route"`
	Reply              string            `json:"reply"`
	NextState          *DialogueState    `json:"next_state"`
	RiskAssessment     *RiskSignalResult `json:"risk_assessment"`
	SafetyAudit        *SafetyAudit      `json:"safety_audit,omitempty"`
	AdaptiveMode       AdaptiveMode      `json:"adaptive_mode"`
	GeneratedQuestions []Question        `json:"generated_questions,omitempty"`
	CrisisResources    []CrisisResource  `json:"crisis_resources,omitempty"`
	UserMessage        *Message          `json:"user_message,omitempty"`
	AssistantMessage   *Message          `json:"assistant_message,omitempty"`
}
