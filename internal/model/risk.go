package model

// RiskLevel is one of the four ordered risk-severity tiers.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
	RiskCrisis RiskLevel = "crisis"
)

// riskRank orders tiers low < medium < high < crisis.
var riskRank = map[RiskLevel]int{
	RiskLow:    0,
	RiskMedium: 1,
	RiskHigh:   2,
	RiskCrisis: 3,
}

// Rank returns the ordinal position of the level in the tier ordering.
// Unknown levels rank below low.
func (l RiskLevel) Rank() int {
	if r, ok := riskRank[l]; ok {
		return r
	}
	return -1
}

// MaxRisk returns the higher of two risk levels under the tier ordering.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// RiskSignalResult is the per-message classification outcome. It is
// ephemeral and recomputed for every message.
type RiskSignalResult struct {
	Level                         RiskLevel `json:"level"`
	Score                         int       `json:"score"`
	TriggeredSignals              []string  `json:"triggered_signals,omitempty"`
	ShouldTriggerSafetyAssessment bool      `json:"should_trigger_safety_assessment"`
}

// SafetyLabel is the coarse label an upstream LLM quick-classifier asserts
// for a message. It is audited, never trusted.
type SafetyLabel string

const (
	SafetyNormal SafetyLabel = "normal"
	SafetyUrgent SafetyLabel = "urgent"
	SafetyCrisis SafetyLabel = "crisis"
)

// SafetyAudit is the outcome of auditing an upstream safety label against
// the literal message text.
type SafetyAudit struct {
	Level        SafetyLabel `json:"level"`
	IsDowngraded bool        `json:"is_downgraded"`
	Reason       string      `json:"reason,omitempty"`
}
