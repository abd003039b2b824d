// Package route selects the per-turn reply strategy: crisis, support, or
// structured assessment. Precedence is expressed as ordered rule lists
// evaluated first-match-wins so each rule is independently testable.
package route

import (
	"strings"

	"github.com/heartline-ai/counseling-platform/internal/model"
	"github.com/heartline-ai/counseling-platform/pkg/metrics"
)

// Rules is the injected phrase configuration for route classification.
type Rules struct {
	// VentPhrases signal the user only wants to vent, no advice.
	VentPhrases []string

	// CrisisPhrases is the explicit self-harm/suicide/farewell family that
	// routes straight to the crisis strategy.
	CrisisPhrases []string
}

// DefaultRules returns the production Simplified-Chinese route phrases.
func DefaultRules() Rules {
	return Rules{
		VentPhrases: []string{
			"只想倾诉", "只是想说说", "不要建议", "不需要建议", "听我说就好",
			"只想找人说说话", "不用给我建议",
		},
		CrisisPhrases: []string{
			"自杀", "想死", "不想活", "活不下去", "结束生命", "自残", "割腕",
			"跳楼", "轻生", "遗书", "永别", "再见了这个世界", "最后一次说话",
		},
	}
}

// rule is one (predicate, outcome) entry of the routing cascade.
type rule struct {
	name    string
	matches func(folded string) bool
	route   model.Route
}

// Classifier picks the reply strategy for a normal turn.
type Classifier struct {
	rules []rule
}

// NewClassifier creates a route classifier over the given rules.
func NewClassifier(cfg Rules) *Classifier {
	return &Classifier{
		rules: []rule{
			{
				name:    "vent_only",
				matches: containsAny(cfg.VentPhrases),
				route:   model.RouteSupport,
			},
			{
				name:    "explicit_crisis",
				matches: containsAny(cfg.CrisisPhrases),
				route:   model.RouteCrisis,
			},
		},
	}
}

// Classify returns the route for a normal (non-follow-up) turn. The default
// outcome is the structured assessment route.
func (c *Classifier) Classify(text string) model.Route {
	folded := strings.ToLower(text)
	route := model.RouteAssessment
	for _, r := range c.rules {
		if r.matches(folded) {
			route = r.route
			break
		}
	}
	metrics.RouteSelectionsTotal.WithLabelValues(string(route)).Inc()
	return route
}

func containsAny(phrases []string) func(string) bool {
	return func(folded string) bool {
		for _, p := range phrases {
			if strings.Contains(folded, strings.ToLower(p)) {
				return true
			}
		}
		return false
	}
}
