package triage

import (
	"strings"

	"github.com/heartline-ai/counseling-platform/internal/model"
	"github.com/heartline-ai/counseling-platform/pkg/metrics"
)

// Tier scores. No cross-tier accumulation: the first matching tier wins.
const (
	scoreCrisis = 10
	scoreHigh   = 7
	scoreMedium = 4
	scoreLow    = 0
)

// Analyzer classifies one message into a risk tier by strict-priority
// substring matching against the vocabulary tiers.
type Analyzer struct {
	vocab Vocabulary
}

// NewAnalyzer creates an analyzer over the given vocabulary.
func NewAnalyzer(vocab Vocabulary) *Analyzer {
	return &Analyzer{vocab: vocab}
}

// Analyze classifies a single message. It is total over strings and cannot
// fail.
func (a *Analyzer) Analyze(text string) *model.RiskSignalResult {
	folded := strings.ToLower(text)

	if hits := matchAll(folded, a.vocab.CrisisPhrases); len(hits) > 0 {
		return a.result(model.RiskCrisis, scoreCrisis, hits)
	}
	if hits := matchAll(folded, a.vocab.HighPhrases); len(hits) > 0 {
		return a.result(model.RiskHigh, scoreHigh, hits)
	}
	if hits := matchAll(folded, a.vocab.MediumPhrases); len(hits) > 0 {
		return a.result(model.RiskMedium, scoreMedium, hits)
	}

	// Low-tier hits are diagnostic only: recorded in the signals for
	// logging, never elevating the level.
	hits := matchAll(folded, a.vocab.LowPhrases)
	return a.result(model.RiskLow, scoreLow, hits)
}

func (a *Analyzer) result(level model.RiskLevel, score int, signals []string) *model.RiskSignalResult {
	metrics.RiskClassificationsTotal.WithLabelValues(string(level)).Inc()
	return &model.RiskSignalResult{
		Level:            level,
		Score:            score,
		TriggeredSignals: signals,
	}
}

func matchAll(folded string, phrases []string) []string {
	var hits []string
	for _, p := range phrases {
		if strings.Contains(folded, strings.ToLower(p)) {
			hits = append(hits, p)
		}
	}
	return hits
}

// ShouldTriggerSafetyCheck applies the fixed-order trigger rules for
// interrupting the dialogue with a structured safety assessment. It is
// monotonic in both turn and emotionScore for a fixed risk level.
func ShouldTriggerSafetyCheck(result *model.RiskSignalResult, turn, emotionScore int) bool {
	switch result.Level {
	case model.RiskCrisis:
		return true
	case model.RiskHigh:
		return emotionScore >= 7 || turn >= 5
	case model.RiskMedium:
		return turn >= 7 && emotionScore >= 6
	default:
		return false
	}
}
