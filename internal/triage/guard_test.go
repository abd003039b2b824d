package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

func TestGuardAudit(t *testing.T) {
	guard := NewGuard(DefaultGuardRules())

	tests := []struct {
		name           string
		text           string
		upstream       model.SafetyLabel
		wantLevel      model.SafetyLabel
		wantDowngraded bool
	}{
		{
			name:           "normal label passes through",
			text:           "我今天心情不错",
			upstream:       model.SafetyNormal,
			wantLevel:      model.SafetyNormal,
			wantDowngraded: false,
		},
		{
			name:           "colloquial intensifier downgrades crisis",
			text:           "我今天要累死了",
			upstream:       model.SafetyCrisis,
			wantLevel:      model.SafetyNormal,
			wantDowngraded: true,
		},
		{
			name:           "literal risk phrase keeps crisis",
			text:           "我想自杀",
			upstream:       model.SafetyCrisis,
			wantLevel:      model.SafetyCrisis,
			wantDowngraded: false,
		},
		{
			name:           "technology crash downgrades urgent",
			text:           "今天系统崩溃了三次，烦死了",
			upstream:       model.SafetyUrgent,
			wantLevel:      model.SafetyNormal,
			wantDowngraded: true,
		},
		{
			name:           "casual farewell downgrades urgent",
			text:           "那就先这样，再见",
			upstream:       model.SafetyUrgent,
			wantLevel:      model.SafetyNormal,
			wantDowngraded: true,
		},
		{
			name:           "unrecognized label with risk text audits as urgent",
			text:           "我割腕了",
			upstream:       model.SafetyLabel("emergencia"),
			wantLevel:      model.SafetyUrgent,
			wantDowngraded: false,
		},
		{
			name:           "unrecognized label with benign text downgrades",
			text:           "今天吃了火锅",
			upstream:       model.SafetyLabel("???"),
			wantLevel:      model.SafetyNormal,
			wantDowngraded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := guard.Audit(tt.text, tt.upstream)
			assert.Equal(t, tt.wantLevel, audit.Level)
			assert.Equal(t, tt.wantDowngraded, audit.IsDowngraded)
			if tt.wantDowngraded {
				assert.NotEmpty(t, audit.Reason)
			}
		})
	}
}

func TestGuardNeverUpgrades(t *testing.T) {
	guard := NewGuard(DefaultGuardRules())

	// Even with literal risk text, a normal upstream label stays normal. The
	// analyzer and route classifier handle raw-text escalation.
	audit := guard.Audit("我想自杀", model.SafetyNormal)
	assert.Equal(t, model.SafetyNormal, audit.Level)
	assert.False(t, audit.IsDowngraded)
}

func TestGuardExclusionDoesNotMaskSeparateRisk(t *testing.T) {
	guard := NewGuard(DefaultGuardRules())

	// The exclusion strips only its own span; a real risk phrase elsewhere in
	// the message still counts.
	audit := guard.Audit("笑死我了，不过说真的，我不想活了", model.SafetyCrisis)
	assert.Equal(t, model.SafetyCrisis, audit.Level)
	assert.False(t, audit.IsDowngraded)
}
