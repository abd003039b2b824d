package dialogue

import (
	"github.com/heartline-ai/counseling-platform/internal/model"
)

// Tracker derives dialogue state across turns.
type Tracker struct{}

// NewTracker creates a dialogue state tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update advances the state by one turn: increments the turn counter,
// appends to the risk history, recomputes the running highest risk under
// the tier ordering, and recomputes the phase. The input state is not
// mutated. HighestRisk never decreases across successive updates.
//
// safety_check is absorbing: once entered, it holds on subsequent turns,
// even calm ones, until the structured assessment completes and marks
// SafetyCheckCompleted. Only then does the phase fall back to the
// turn-derived progression.
func (t *Tracker) Update(state *model.DialogueState, level model.RiskLevel, riskTriggered bool) *model.DialogueState {
	next := state.Clone()
	next.Turn++
	next.RiskHistory = append(next.RiskHistory, level)
	next.HighestRisk = model.MaxRisk(next.HighestRisk, level)

	hold := riskTriggered ||
		(state.Phase == model.PhaseSafetyCheck && !state.SafetyCheckCompleted)
	next.Phase = Transition(next.Turn, hold)
	if riskTriggered {
		next.SafetyCheckCompleted = false
	}
	return next
}
