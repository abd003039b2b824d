package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

func TestSelect(t *testing.T) {
	selector := NewSelector(DefaultConfig())

	improving := []model.AssessmentReport{
		{RiskLevel: model.RiskLow},
		{RiskLevel: model.RiskHigh},
	}
	worsening := []model.AssessmentReport{
		{RiskLevel: model.RiskHigh},
		{RiskLevel: model.RiskLow},
	}
	flat := []model.AssessmentReport{
		{RiskLevel: model.RiskMedium},
		{RiskLevel: model.RiskMedium},
	}

	tests := []struct {
		name    string
		current model.TurnAnalysis
		history []model.AssessmentReport
		want    model.AdaptiveMode
	}{
		{
			name:    "crisis safety is a hard guardian override",
			current: model.TurnAnalysis{Safety: model.SafetyCrisis},
			history: improving,
			want:    model.ModeGuardian,
		},
		{
			name:    "urgent safety also forces guardian",
			current: model.TurnAnalysis{Safety: model.SafetyUrgent},
			want:    model.ModeGuardian,
		},
		{
			name:    "stuck intent forces guide",
			current: model.TurnAnalysis{Safety: model.SafetyNormal, Intent: "我不知道怎么办了"},
			history: improving,
			want:    model.ModeGuide,
		},
		{
			name:    "worsening trend selects guardian",
			current: model.TurnAnalysis{Safety: model.SafetyNormal},
			history: worsening,
			want:    model.ModeGuardian,
		},
		{
			name:    "improvement down to low selects coach",
			current: model.TurnAnalysis{Safety: model.SafetyNormal},
			history: improving,
			want:    model.ModeCoach,
		},
		{
			name:    "flat trend falls through to companion",
			current: model.TurnAnalysis{Safety: model.SafetyNormal},
			history: flat,
			want:    model.ModeCompanion,
		},
		{
			name:    "improvement that is still elevated stays companion",
			current: model.TurnAnalysis{Safety: model.SafetyNormal},
			history: []model.AssessmentReport{
				{RiskLevel: model.RiskMedium},
				{RiskLevel: model.RiskHigh},
			},
			want: model.ModeCompanion,
		},
		{
			name:    "single high report selects guardian",
			current: model.TurnAnalysis{Safety: model.SafetyNormal},
			history: []model.AssessmentReport{{RiskLevel: model.RiskHigh}},
			want:    model.ModeGuardian,
		},
		{
			name:    "single medium report selects guide",
			current: model.TurnAnalysis{Safety: model.SafetyNormal},
			history: []model.AssessmentReport{{RiskLevel: model.RiskMedium}},
			want:    model.ModeGuide,
		},
		{
			name:    "single low report selects coach",
			current: model.TurnAnalysis{Safety: model.SafetyNormal},
			history: []model.AssessmentReport{{RiskLevel: model.RiskLow}},
			want:    model.ModeCoach,
		},
		{
			name:    "no history defaults to companion",
			current: model.TurnAnalysis{Safety: model.SafetyNormal},
			want:    model.ModeCompanion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selector.Select(tt.current, tt.history))
		})
	}
}

func TestToneBlockCoversAllModes(t *testing.T) {
	for _, mode := range []model.AdaptiveMode{
		model.ModeGuardian, model.ModeCompanion, model.ModeGuide, model.ModeCoach,
	} {
		assert.NotEmpty(t, ToneBlock(mode), "mode %s has no tone block", mode)
	}
}
