package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

func TestTrackerUpdate(t *testing.T) {
	tracker := NewTracker()
	state := model.NewDialogueState()

	next := tracker.Update(state, model.RiskMedium, false)

	assert.Equal(t, 1, next.Turn)
	assert.Equal(t, model.PhaseInitialContact, next.Phase)
	assert.Equal(t, []model.RiskLevel{model.RiskMedium}, next.RiskHistory)
	assert.Equal(t, model.RiskMedium, next.HighestRisk)

	// The input state is never mutated.
	assert.Equal(t, 0, state.Turn)
	assert.Empty(t, state.RiskHistory)
}

func TestHighestRiskNeverDecreases(t *testing.T) {
	tracker := NewTracker()
	state := model.NewDialogueState()

	state = tracker.Update(state, model.RiskHigh, false)
	require.Equal(t, model.RiskHigh, state.HighestRisk)

	state = tracker.Update(state, model.RiskLow, false)
	assert.Equal(t, model.RiskHigh, state.HighestRisk)
	assert.Equal(t, []model.RiskLevel{model.RiskHigh, model.RiskLow}, state.RiskHistory)

	state = tracker.Update(state, model.RiskCrisis, true)
	assert.Equal(t, model.RiskCrisis, state.HighestRisk)
}

func TestRiskTriggerForcesSafetyCheck(t *testing.T) {
	tracker := NewTracker()
	state := model.NewDialogueState()
	state.SafetyCheckCompleted = true
	state.Turn = 10

	next := tracker.Update(state, model.RiskCrisis, true)

	assert.Equal(t, model.PhaseSafetyCheck, next.Phase)
	assert.False(t, next.SafetyCheckCompleted)
}

func TestSafetyCheckHoldsUntilResolved(t *testing.T) {
	tracker := NewTracker()
	state := model.NewDialogueState()
	state.Turn = 2

	state = tracker.Update(state, model.RiskCrisis, true)
	require.Equal(t, model.PhaseSafetyCheck, state.Phase)

	// Calm follow-up turns do not leave safety_check while the structured
	// assessment is still open.
	state = tracker.Update(state, model.RiskLow, false)
	assert.Equal(t, model.PhaseSafetyCheck, state.Phase)
	state = tracker.Update(state, model.RiskLow, false)
	assert.Equal(t, model.PhaseSafetyCheck, state.Phase)

	// Once the assessment concludes, the phase falls back to the
	// turn-derived progression on the next turn.
	state.SafetyCheckCompleted = true
	state = tracker.Update(state, model.RiskLow, false)
	assert.Equal(t, model.PhaseExploration, state.Phase)
}
