package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name          string
		turn          int
		riskTriggered bool
		want          model.Phase
	}{
		{"turn 1", 1, false, model.PhaseInitialContact},
		{"turn 2 still initial", 2, false, model.PhaseInitialContact},
		{"turn 3 builds rapport", 3, false, model.PhaseRapportBuilding},
		{"turn 4 still rapport", 4, false, model.PhaseRapportBuilding},
		{"turn 5 explores", 5, false, model.PhaseExploration},
		{"turn 7 still exploring", 7, false, model.PhaseExploration},
		{"turn 8 concludes", 8, false, model.PhaseConclusion},
		{"risk interrupts early turn", 1, true, model.PhaseSafetyCheck},
		{"risk interrupts late turn", 99, true, model.PhaseSafetyCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(tt.turn, tt.riskTriggered))
		})
	}
}

func TestConstraintBlock(t *testing.T) {
	block := ConstraintBlock(model.PhaseSafetyCheck)
	assert.Contains(t, block, "safety_check")
	assert.Contains(t, block, "安全确认")
	assert.Contains(t, block, "淡化风险")
}

func TestConstraintTablesCoverAllPhases(t *testing.T) {
	phases := []model.Phase{
		model.PhaseInitialContact,
		model.PhaseRapportBuilding,
		model.PhaseExploration,
		model.PhaseSafetyCheck,
		model.PhaseConclusion,
	}
	for _, phase := range phases {
		assert.NotEmpty(t, AllowedTopics(phase), "phase %s has no allowed topics", phase)
		assert.NotEmpty(t, ForbiddenActions(phase), "phase %s has no forbidden actions", phase)
	}
}
