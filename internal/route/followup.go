package route

import (
	"strings"

	"github.com/heartline-ai/counseling-platform/pkg/metrics"
)

// EscalationRules configures the multi-turn escalation check applied while
// a structured follow-up chain is in flight. The unrelated-plan blocklist is
// a hand-tuned disambiguation and intentionally stays a literal list;
// changing it changes reviewed safety behavior.
type EscalationRules struct {
	// NegationPhrases explicitly deny self-harm thoughts and are checked
	// before anything else.
	NegationPhrases []string

	// IdeationContexts are self-harm-ideation context phrases.
	IdeationContexts []string

	// Escalators are frequency or severity markers that make ideation
	// context high-risk.
	Escalators []string

	// UnrelatedPlanContexts are benign uses of "plan" (work, travel, exam,
	// speech) that must not trip the escalator on their own.
	UnrelatedPlanContexts []string

	// IntentPhrases are explicit suicide-intent statements.
	IntentPhrases []string

	// BarePlanMarker is the escalator that is meaningless without risk
	// context ("already planned" alone).
	BarePlanMarker string
}

// DefaultEscalationRules returns the production escalation configuration.
func DefaultEscalationRules() EscalationRules {
	return EscalationRules{
		NegationPhrases: []string{
			"没有伤害自己的想法", "没有想过伤害自己", "不会伤害自己",
			"没有自杀的想法", "没有轻生的念头", "从没想过伤害自己",
		},
		IdeationContexts: []string{
			"伤害自己", "自杀的想法", "轻生的念头", "自残的想法",
		},
		Escalators: []string{
			"经常", "频繁", "总是", "每天都", "已经计划", "已计划",
		},
		UnrelatedPlanContexts: []string{
			"工作计划", "旅行计划", "旅游计划", "学习计划", "考试计划",
			"演讲计划", "项目计划", "婚礼计划",
		},
		IntentPhrases: []string{
			"我想死", "想自杀", "要自杀", "想要结束生命", "想轻生", "不想活",
		},
		BarePlanMarker: "已经计划",
	}
}

// verdictRule is one ordered entry of the escalation cascade: when applies
// returns true the cascade stops with highRisk as the outcome.
type verdictRule struct {
	name    string
	applies func(folded string) (matched, highRisk bool)
}

// Escalator evaluates whether the accumulated follow-up answers of an
// assessment chain disclose high risk.
type Escalator struct {
	rules []verdictRule
}

// NewEscalator creates an escalation checker over the given rules.
func NewEscalator(cfg EscalationRules) *Escalator {
	hasAny := func(folded string, phrases []string) bool {
		for _, p := range phrases {
			if strings.Contains(folded, strings.ToLower(p)) {
				return true
			}
		}
		return false
	}

	return &Escalator{
		rules: []verdictRule{
			{
				name: "explicit_negation",
				applies: func(folded string) (bool, bool) {
					return hasAny(folded, cfg.NegationPhrases), false
				},
			},
			{
				name: "ideation_with_escalator",
				applies: func(folded string) (bool, bool) {
					if !hasAny(folded, cfg.IdeationContexts) || !hasAny(folded, cfg.Escalators) {
						return false, false
					}
					// A benign plan context neutralizes the escalator
					// unless explicit intent also appears.
					if hasAny(folded, cfg.UnrelatedPlanContexts) && !hasAny(folded, cfg.IntentPhrases) {
						return true, false
					}
					return true, true
				},
			},
			{
				name: "explicit_intent",
				applies: func(folded string) (bool, bool) {
					// Wins even alongside an unrelated plan context.
					return hasAny(folded, cfg.IntentPhrases), true
				},
			},
			{
				name: "bare_plan_marker",
				applies: func(folded string) (bool, bool) {
					return strings.Contains(folded, strings.ToLower(cfg.BarePlanMarker)), false
				},
			},
		},
	}
}

// IsHighRiskAnswer evaluates the concatenation of the new answer with all
// prior answers in the follow-up chain. A true result forces the crisis
// route and bypasses the normal conclusion flow.
func (e *Escalator) IsHighRiskAnswer(combined string) bool {
	folded := strings.ToLower(combined)
	for _, r := range e.rules {
		if matched, highRisk := r.applies(folded); matched {
			if highRisk {
				metrics.EscalationsTotal.Inc()
			}
			return highRisk
		}
	}
	return false
}

// CombineAnswers joins the follow-up chain answers with the newest answer
// for evaluation as one text.
func CombineAnswers(previous []string, latest string) string {
	parts := append(append([]string(nil), previous...), latest)
	return strings.Join(parts, "\n")
}
