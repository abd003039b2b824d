// Package dialogue tracks multi-turn dialogue phase and per-conversation
// risk state.
package dialogue

import (
	"strings"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

// Turn-count boundaries for the phase progression.
const (
	initialContactMaxTurn  = 2
	rapportBuildingMaxTurn = 4
	explorationMaxTurn     = 7
)

// Transition derives the phase for a turn. A triggered risk check forces
// safety_check regardless of turn count; otherwise phases progress
// monotonically with the turn counter.
func Transition(turn int, riskTriggered bool) model.Phase {
	if riskTriggered {
		return model.PhaseSafetyCheck
	}
	switch {
	case turn <= initialContactMaxTurn:
		return model.PhaseInitialContact
	case turn <= rapportBuildingMaxTurn:
		return model.PhaseRapportBuilding
	case turn <= explorationMaxTurn:
		return model.PhaseExploration
	default:
		return model.PhaseConclusion
	}
}

// allowedTopics lists what the generated reply may engage with per phase.
var allowedTopics = map[model.Phase][]string{
	model.PhaseInitialContact:  {"问候", "来访原因", "基本情况"},
	model.PhaseRapportBuilding: {"日常生活", "情绪感受", "人际关系"},
	model.PhaseExploration:     {"问题细节", "成因探索", "应对方式", "支持系统"},
	model.PhaseSafetyCheck:     {"安全确认", "危机资源", "陪伴支持"},
	model.PhaseConclusion:      {"总结回顾", "行动建议", "后续安排"},
}

// forbiddenActions lists reply behaviors disallowed per phase.
var forbiddenActions = map[model.Phase][]string{
	model.PhaseInitialContact:  {"深入创伤细节", "给出诊断", "布置行动任务"},
	model.PhaseRapportBuilding: {"给出诊断", "过早给建议"},
	model.PhaseExploration:     {"给出诊断", "淡化感受"},
	model.PhaseSafetyCheck:     {"转移话题", "淡化风险", "结束对话"},
	model.PhaseConclusion:      {"引入新话题", "深入新的创伤细节"},
}

// AllowedTopics returns the topics the generation prompt may engage with in
// the given phase.
func AllowedTopics(phase model.Phase) []string {
	return allowedTopics[phase]
}

// ForbiddenActions returns the reply behaviors disallowed in the given phase.
func ForbiddenActions(phase model.Phase) []string {
	return forbiddenActions[phase]
}

// ConstraintBlock renders the allowed/forbidden lookup tables as a prompt
// fragment for the generation collaborator.
func ConstraintBlock(phase model.Phase) string {
	var b strings.Builder
	b.WriteString("当前对话阶段: ")
	b.WriteString(string(phase))
	b.WriteString("\n可以涉及: ")
	b.WriteString(strings.Join(AllowedTopics(phase), "、"))
	b.WriteString("\n禁止: ")
	b.WriteString(strings.Join(ForbiddenActions(phase), "、"))
	return b.String()
}
