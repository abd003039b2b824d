// Package persona selects the tone-modifier persona appended to the
// generation prompt from the current turn analysis and longitudinal risk.
package persona

import (
	"strings"

	"github.com/heartline-ai/counseling-platform/internal/model"
	"github.com/heartline-ai/counseling-platform/pkg/metrics"
)

// Severity mapping used to compare successive assessment reports.
const (
	severityLow    = 5
	severityMedium = 10
	severityHigh   = 20
)

// Config holds the injected phrase family for the real-time "stuck" intent
// override.
type Config struct {
	StuckIntentPhrases []string
}

// DefaultConfig returns the production stuck-intent phrases.
func DefaultConfig() Config {
	return Config{
		StuckIntentPhrases: []string{
			"不知道怎么办", "不知道该怎么做", "做不到", "卡住了",
			"迈不出", "走不出来", "无从下手",
		},
	}
}

// Selector picks one of the four adaptive modes.
type Selector struct {
	cfg Config
}

// NewSelector creates a persona selector.
func NewSelector(cfg Config) *Selector {
	return &Selector{cfg: cfg}
}

// Select applies the fixed priority: crisis/urgent safety is a hard
// guardian override, a stuck intent forces guide, then the longitudinal
// risk trend decides, then the most recent single report, then the
// companion default. History must be ordered newest first.
func (s *Selector) Select(current model.TurnAnalysis, history []model.AssessmentReport) model.AdaptiveMode {
	mode := s.selectMode(current, history)
	metrics.AdaptiveModesTotal.WithLabelValues(string(mode)).Inc()
	return mode
}

func (s *Selector) selectMode(current model.TurnAnalysis, history []model.AssessmentReport) model.AdaptiveMode {
	if current.Safety == model.SafetyCrisis || current.Safety == model.SafetyUrgent {
		return model.ModeGuardian
	}

	if s.stuckIntent(current.Intent) {
		return model.ModeGuide
	}

	if len(history) >= 2 {
		latest := riskSeverity(history[0].RiskLevel)
		previous := riskSeverity(history[1].RiskLevel)
		if latest > previous {
			return model.ModeGuardian
		}
		if latest < previous && latest <= severityLow {
			return model.ModeCoach
		}
	} else if len(history) == 1 {
		switch history[0].RiskLevel {
		case model.RiskHigh, model.RiskCrisis:
			return model.ModeGuardian
		case model.RiskMedium:
			return model.ModeGuide
		case model.RiskLow:
			return model.ModeCoach
		}
	}

	return model.ModeCompanion
}

func (s *Selector) stuckIntent(intent string) bool {
	if intent == "" {
		return false
	}
	folded := strings.ToLower(intent)
	for _, p := range s.cfg.StuckIntentPhrases {
		if strings.Contains(folded, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func riskSeverity(level model.RiskLevel) int {
	switch level {
	case model.RiskMedium:
		return severityMedium
	case model.RiskHigh, model.RiskCrisis:
		return severityHigh
	default:
		return severityLow
	}
}

// toneBlocks are the fixed tone-modifier fragments appended to the
// generation prompt per mode.
var toneBlocks = map[model.AdaptiveMode]string{
	model.ModeGuardian: "语气要求：以守护者的姿态回应。放慢节奏，优先确认当下的安全感，" +
		"明确表达你会一直在，不评判、不催促，必要时主动提供求助资源。",
	model.ModeCompanion: "语气要求：以陪伴者的姿态回应。温和共情，多倾听少建议，" +
		"用贴近生活的语言映照对方的感受。",
	model.ModeGuide: "语气要求：以引导者的姿态回应。承认卡住的感觉，然后把问题拆小，" +
		"每次只邀请对方看一小步，不替对方做决定。",
	model.ModeCoach: "语气要求：以教练的姿态回应。肯定已经发生的好转，" +
		"帮助对方总结有效的应对方式，鼓励小的可行行动。",
}

// ToneBlock returns the prompt fragment for a mode.
func ToneBlock(mode model.AdaptiveMode) string {
	return toneBlocks[mode]
}
