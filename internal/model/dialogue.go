package model

// Phase is the dialogue-progress stage gating allowed topics and techniques.
type Phase string

const (
	PhaseInitialContact  Phase = "initial_contact"
	PhaseRapportBuilding Phase = "rapport_building"
	PhaseExploration     Phase = "exploration"
	PhaseSafetyCheck     Phase = "safety_check"
	PhaseConclusion      Phase = "conclusion"
)

// Route is the high-level reply strategy selected per turn.
type Route string

const (
	RouteCrisis     Route = "crisis"
	RouteSupport    Route = "support"
	RouteAssessment Route = "assessment"
)

// AssessmentStage tracks where the structured assessment flow stands.
type AssessmentStage string

const (
	StageIntake           AssessmentStage = "intake"
	StageAwaitingFollowup AssessmentStage = "awaiting_followup"
	StageGapFollowup      AssessmentStage = "gap_followup"
	StageConclusion       AssessmentStage = "conclusion"
)

// SCEB records which of the four assessment categories have been elicited:
// Situation, Cognition, Emotion, Behavior.
type SCEB struct {
	Situation bool `json:"situation"`
	Cognition bool `json:"cognition"`
	Emotion   bool `json:"emotion"`
	Behavior  bool `json:"behavior"`
}

// DialogueState is the per-conversation tracking state. It is re-derived
// per request from history and may be cached. RiskHistory is append-only and
// HighestRisk never decreases within a conversation.
type DialogueState struct {
	Turn                 int             `json:"turn"`
	Phase                Phase           `json:"phase"`
	SCEB                 SCEB            `json:"sceb"`
	RiskHistory          []RiskLevel     `json:"risk_history"`
	HighestRisk          RiskLevel       `json:"highest_risk"`
	SafetyCheckCompleted bool            `json:"safety_check_completed"`
	AssessmentStage      AssessmentStage `json:"assessment_stage"`

	// OpeningMessage and FollowupAnswers accumulate assessment evidence
	// across the follow-up chain.
	OpeningMessage  string   `json:"opening_message,omitempty"`
	FollowupAnswers []string `json:"followup_answers,omitempty"`
}

// NewDialogueState returns the initial state for a fresh conversation.
func NewDialogueState() *DialogueState {
	return &DialogueState{
		Turn:            0,
		Phase:           PhaseInitialContact,
		HighestRisk:     RiskLow,
		AssessmentStage: StageIntake,
	}
}

// Clone returns a deep copy so callers can compute a next state without
// mutating the cached one.
func (s *DialogueState) Clone() *DialogueState {
	next := *s
	next.RiskHistory = append([]RiskLevel(nil), s.RiskHistory...)
	next.FollowupAnswers = append([]string(nil), s.FollowupAnswers...)
	return &next
}

// Question is one structured assessment follow-up question.
type Question struct {
	Category string   `json:"category"`
	Text     string   `json:"text"`
	Options  []string `json:"options,omitempty"`
}
