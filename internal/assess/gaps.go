package assess

import (
	"strings"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

// GapResult reports whether the accumulated assessment evidence still has a
// missing category, and which single question to ask next.
type GapResult struct {
	HasGap       bool
	NextQuestion *model.Question
}

// Detector re-checks the evidence categories against the opening message
// plus the combined follow-up answers before the flow may conclude.
type Detector struct {
	kw Keywords
}

// NewDetector creates a gap detector over the given keyword families.
func NewDetector(kw Keywords) *Detector {
	return &Detector{kw: kw}
}

// Detect returns the first remaining gap in priority order: duration, then
// impact, then the unanswered risk scale (only demanded when the opening
// message carried risk or high-severity language). No gap means the flow
// advances to conclusion.
func (d *Detector) Detect(opening, combinedAnswers string) GapResult {
	evidence := strings.ToLower(opening + "\n" + combinedAnswers)

	if !hasAny(evidence, d.kw.Duration) {
		q := durationQuestion
		return GapResult{HasGap: true, NextQuestion: &q}
	}
	if !hasAny(evidence, d.kw.Impact) {
		q := impactQuestion
		return GapResult{HasGap: true, NextQuestion: &q}
	}

	riskRelevant := hasAny(strings.ToLower(opening), d.kw.Risk) ||
		hasAny(strings.ToLower(opening), d.kw.Severity)
	if riskRelevant && !hasAny(strings.ToLower(combinedAnswers), d.kw.ScaleAnswers) {
		q := riskScaleQuestion
		return GapResult{HasGap: true, NextQuestion: &q}
	}

	return GapResult{}
}
