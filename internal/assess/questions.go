// Package assess implements the structured assessment flow: adaptive intake
// questions and gap detection over the SCEB evidence categories.
package assess

import (
	"strings"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

// Category names for the four kinds of evidence the intake flow elicits.
const (
	CategoryDuration = "duration"
	CategoryImpact   = "impact"
	CategoryRisk     = "risk"
)

// Keywords configures the evidence-category keyword families. Immutable
// after construction; defaults are the production Simplified-Chinese lists.
type Keywords struct {
	// Duration requires a concrete time span. A vague "recently" is not
	// duration evidence.
	Duration []string

	// Impact covers functional impact on daily life.
	Impact []string

	// Risk is explicit self-harm/suicide language.
	Risk []string

	// Severity is high-severity distress language short of explicit risk.
	Severity []string

	// ScaleAnswers are markers that a risk-scale question has been
	// answered in a follow-up.
	ScaleAnswers []string
}

// DefaultKeywords returns the production keyword families.
func DefaultKeywords() Keywords {
	return Keywords{
		Duration: []string{
			"几天", "好几天", "一周", "两周", "几周", "一个月", "几个月",
			"半年", "一年", "多久", "很久", "天了", "周了", "星期了", "月了", "年了",
		},
		Impact: []string{
			"影响", "上班", "上课", "没法工作", "没法学习", "吃不下",
			"睡不着", "失眠", "请假", "没动力", "不想做", "什么都不想", "无法集中",
		},
		Risk: []string{
			"伤害自己", "自杀", "想死", "轻生", "自残", "不想活", "活不下去",
		},
		Severity: []string{
			"崩溃", "绝望", "撑不下去", "活着没意思", "没有希望", "走投无路",
		},
		ScaleAnswers: []string{
			"完全没有", "没有", "偶尔", "经常", "频繁", "已经计划", "已经有具体计划",
		},
	}
}

// Standard question templates.
var (
	durationQuestion = model.Question{
		Category: CategoryDuration,
		Text:     "这种状态持续多久了？是几天、几周，还是几个月了？",
	}
	impactQuestion = model.Question{
		Category: CategoryImpact,
		Text:     "这些感受对你的工作、学习或日常生活有影响吗？",
	}
	riskScaleQuestion = model.Question{
		Category: CategoryRisk,
		Text:     "过去两周，你有没有出现过伤害自己的念头？",
		Options: []string{
			"完全没有",
			"偶尔闪过",
			"经常出现",
			"已经有具体计划",
		},
	}
)

// Generator picks at most two structured intake questions from what the
// opening message already covers.
type Generator struct {
	kw Keywords
}

// NewGenerator creates a question generator over the given keyword families.
func NewGenerator(kw Keywords) *Generator {
	return &Generator{kw: kw}
}

// IntakeQuestions scans the opening message and returns one or two
// follow-up questions. It never returns zero questions: with nothing
// missing the duration question is still asked.
func (g *Generator) IntakeQuestions(opening string) []model.Question {
	folded := strings.ToLower(opening)

	var questions []model.Question
	if !hasAny(folded, g.kw.Duration) {
		questions = append(questions, durationQuestion)
	}
	if !hasAny(folded, g.kw.Impact) && len(questions) < 2 {
		questions = append(questions, impactQuestion)
	}

	// Explicit risk or high-severity distress language upgrades the intake
	// to include the fixed risk-scale question. It replaces the impact
	// question when two are already queued, otherwise it is appended.
	if hasAny(folded, g.kw.Risk) || hasAny(folded, g.kw.Severity) {
		if len(questions) == 2 {
			questions[1] = riskScaleQuestion
		} else {
			questions = append(questions, riskScaleQuestion)
		}
	}

	if len(questions) == 0 {
		questions = append(questions, durationQuestion)
	}
	return questions
}

func hasAny(folded string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(folded, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
