package triage

import (
	"strings"

	"github.com/heartline-ai/counseling-platform/internal/model"
	"github.com/heartline-ai/counseling-platform/pkg/metrics"
)

// Guard audits an upstream LLM-asserted safety label against the literal
// message text. It only ever downgrades false positives; upgrading is the
// analyzer's and route classifier's job, which run on raw text directly.
type Guard struct {
	rules GuardRules
}

// NewGuard creates a guard over the given audit rules.
func NewGuard(rules GuardRules) *Guard {
	return &Guard{rules: rules}
}

// Audit re-scans the message when the upstream label is urgent or crisis.
// A normal label passes through unchanged. An unrecognized label is audited
// as urgent: fail toward caution, never toward silence.
func (g *Guard) Audit(text string, upstream model.SafetyLabel) *model.SafetyAudit {
	switch upstream {
	case model.SafetyNormal:
		return &model.SafetyAudit{Level: model.SafetyNormal}
	case model.SafetyUrgent, model.SafetyCrisis:
		// fallthrough to the literal re-scan
	default:
		upstream = model.SafetyUrgent
	}

	if pattern, ok := g.hardPatternIn(text); ok {
		return &model.SafetyAudit{
			Level:  upstream,
			Reason: "hard risk pattern matched: " + pattern,
		}
	}

	metrics.SafetyDowngradesTotal.WithLabelValues(string(upstream)).Inc()
	return &model.SafetyAudit{
		Level:        model.SafetyNormal,
		IsDowngraded: true,
		Reason:       "no hard risk pattern in literal text",
	}
}

// hardPatternIn reports whether any hard pattern survives after known
// colloquial false positives are stripped out.
func (g *Guard) hardPatternIn(text string) (string, bool) {
	folded := strings.ToLower(text)
	for _, excl := range g.rules.Exclusions {
		folded = strings.ReplaceAll(folded, strings.ToLower(excl), "")
	}
	for _, p := range g.rules.HardPatterns {
		if strings.Contains(folded, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}
