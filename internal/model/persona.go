package model

import (
	"time"
)

// AdaptiveMode is the tone-modifier persona applied to the generation
// prompt. It is derived per request and never persisted.
type AdaptiveMode string

const (
	ModeGuardian  AdaptiveMode = "guardian"
	ModeCompanion AdaptiveMode = "companion"
	ModeGuide     AdaptiveMode = "guide"
	ModeCoach     AdaptiveMode = "coach"
)

// AssessmentReport is a persisted longitudinal risk assessment snapshot,
// read newest-first by the persona selector.
type AssessmentReport struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	TenantID       string    `json:"tenant_id"`
	RiskLevel      RiskLevel `json:"risk_level"`
	Summary        string    `json:"summary,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TurnAnalysis is the real-time signal bundle the persona selector consumes
// for the current turn.
type TurnAnalysis struct {
	Safety       SafetyLabel `json:"safety"`
	EmotionScore int         `json:"emotion_score"`
	Intent       string      `json:"intent,omitempty"`
}
