// Package engine orchestrates one evaluation turn: risk triage, routing,
// state tracking, safety audit, persona selection, and reply generation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/heartline-ai/counseling-platform/internal/analysis"
	"github.com/heartline-ai/counseling-platform/internal/assess"
	"github.com/heartline-ai/counseling-platform/internal/dialogue"
	"github.com/heartline-ai/counseling-platform/internal/llm"
	"github.com/heartline-ai/counseling-platform/internal/model"
	"github.com/heartline-ai/counseling-platform/internal/persona"
	"github.com/heartline-ai/counseling-platform/internal/route"
	"github.com/heartline-ai/counseling-platform/internal/triage"
	"github.com/heartline-ai/counseling-platform/pkg/logger"
	"github.com/heartline-ai/counseling-platform/pkg/metrics"
)

// ErrGenerationFailed is surfaced when the generation collaborator fails
// after a retry. Crisis-route replies never surface it: they fall back to
// the static resource message instead.
var ErrGenerationFailed = errors.New("generation failed")

// historyWindow is how many trailing messages feed the generation context.
const historyWindow = 50

// MessageStore persists and reads conversation messages.
type MessageStore interface {
	PublishMessage(ctx context.Context, msg *model.Message) (uint64, error)
	GetMessages(ctx context.Context, tenantID, conversationID string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error)
}

// StateCache caches derived dialogue state between turns.
type StateCache interface {
	State(conversationID string) *model.DialogueState
	Put(conversationID string, state *model.DialogueState)
}

// ReportStore persists and reads longitudinal assessment reports.
type ReportStore interface {
	Append(ctx context.Context, report *model.AssessmentReport) error
	RecentFirst(ctx context.Context, conversationID string, limit int) ([]model.AssessmentReport, error)
}

// Deps bundles the engine's collaborators.
type Deps struct {
	Messages  MessageStore
	States    StateCache
	Reports   ReportStore
	Generator llm.Client
	Emotion   analysis.EmotionAnalyzer
	Quick     analysis.QuickClassifier
	Logger    *logger.Logger
}

// Engine is the per-turn evaluation entry point.
type Engine struct {
	deps Deps

	analyzer   *triage.Analyzer
	guard      *triage.Guard
	classifier *route.Classifier
	escalator  *route.Escalator
	questions  *assess.Generator
	gaps       *assess.Detector
	tracker    *dialogue.Tracker
	personas   *persona.Selector

	defaultModel string
}

// New creates an engine with the production vocabulary and rules.
func New(deps Deps, defaultModel string) *Engine {
	kw := assess.DefaultKeywords()
	return &Engine{
		deps:         deps,
		analyzer:     triage.NewAnalyzer(triage.DefaultVocabulary()),
		guard:        triage.NewGuard(triage.DefaultGuardRules()),
		classifier:   route.NewClassifier(route.DefaultRules()),
		escalator:    route.NewEscalator(route.DefaultEscalationRules()),
		questions:    assess.NewGenerator(kw),
		gaps:         assess.NewDetector(kw),
		tracker:      dialogue.NewTracker(),
		personas:     persona.NewSelector(persona.DefaultConfig()),
		defaultModel: defaultModel,
	}
}

// Evaluate runs one full turn: persists the user message, classifies risk
// and route, advances dialogue state, audits the upstream safety label,
// selects a persona, and produces the reply.
func (e *Engine) Evaluate(ctx context.Context, tenantID, conversationID string, req *model.SendMessageRequest) (*model.EvaluateResponse, error) {
	text := req.Content
	state := e.deps.States.State(conversationID)
	log := e.deps.Logger.WithConversation("", tenantID, conversationID)

	userMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		TenantID:       tenantID,
		Role:           model.RoleUser,
		Content:        text,
		CreatedAt:      time.Now(),
	}
	seq, err := e.deps.Messages.PublishMessage(ctx, userMsg)
	if err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}
	userMsg.Sequence = seq
	metrics.MessagesTotal.WithLabelValues(tenantID, string(model.RoleUser)).Inc()

	// The collaborator calls are independent of each other; join them
	// before deciding anything that needs their results.
	var emotionScore int
	var quick *analysis.QuickClassification
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := e.deps.Emotion.AnalyzeEmotion(gctx, text)
		if err != nil {
			log.Warn("emotion analysis unavailable", zap.Error(err))
			return nil
		}
		emotionScore = result.Score
		return nil
	})
	g.Go(func() error {
		result, err := e.deps.Quick.ClassifySafety(gctx, text)
		if err != nil {
			log.Warn("quick safety classification unavailable", zap.Error(err))
			return nil
		}
		quick = result
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	risk := e.analyzer.Analyze(text)

	decision := e.decideRoute(state, text)

	turn := state.Turn + 1
	riskTriggered := triage.ShouldTriggerSafetyCheck(risk, turn, emotionScore) || decision.escalated
	risk.ShouldTriggerSafetyAssessment = riskTriggered

	nextState := e.tracker.Update(state, risk.Level, riskTriggered)
	e.applyAssessmentState(nextState, decision, text, emotionScore)

	var audit *model.SafetyAudit
	if quick != nil {
		audit = e.guard.Audit(text, quick.Safety)
	}

	reports, err := e.deps.Reports.RecentFirst(ctx, conversationID, 10)
	if err != nil {
		log.Warn("assessment report history unavailable", zap.Error(err))
	}
	mode := e.personas.Select(model.TurnAnalysis{
		Safety:       effectiveSafety(audit, risk.Level, decision.escalated),
		EmotionScore: emotionScore,
		Intent:       text,
	}, reports)

	reply, resources, err := e.reply(ctx, tenantID, conversationID, decision, mode, nextState, req.Model)
	if err != nil {
		return nil, err
	}

	assistantMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		TenantID:       tenantID,
		Role:           model.RoleAssistant,
		Content:        reply,
		CreatedAt:      time.Now(),
	}
	replySeq, err := e.deps.Messages.PublishMessage(ctx, assistantMsg)
	if err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}
	assistantMsg.Sequence = replySeq
	metrics.MessagesTotal.WithLabelValues(tenantID, string(model.RoleAssistant)).Inc()

	e.recordReport(ctx, tenantID, conversationID, risk, riskTriggered, nextState, log)
	e.deps.States.Put(conversationID, nextState)

	return &model.EvaluateResponse{
		Route:              decision.route,
		Reply:              reply,
		NextState:          nextState,
		RiskAssessment:     risk,
		SafetyAudit:        audit,
		AdaptiveMode:       mode,
		GeneratedQuestions: decision.questions,
		CrisisResources:    resources,
		UserMessage:        userMsg,
		AssistantMessage:   assistantMsg,
	}, nil
}

// routeDecision captures the routing outcome for one turn.
type routeDecision struct {
	route     model.Route
	escalated bool // follow-up chain disclosed high risk
	questions []model.Question
	nextStage model.AssessmentStage
	concluded bool
}

// decideRoute picks the reply strategy. Mid-follow-up turns bypass normal
// routing: the escalation check runs over the whole answer chain, and a
// negative result hands control to the gap detector.
func (e *Engine) decideRoute(state *model.DialogueState, text string) routeDecision {
	inFollowup := state.AssessmentStage == model.StageAwaitingFollowup ||
		state.AssessmentStage == model.StageGapFollowup

	if inFollowup {
		combined := route.CombineAnswers(state.FollowupAnswers, text)
		if e.escalator.IsHighRiskAnswer(combined) {
			return routeDecision{
				route:     model.RouteCrisis,
				escalated: true,
				nextStage: state.AssessmentStage,
			}
		}
		gap := e.gaps.Detect(state.OpeningMessage, combined)
		if gap.HasGap {
			return routeDecision{
				route:     model.RouteAssessment,
				questions: []model.Question{*gap.NextQuestion},
				nextStage: model.StageGapFollowup,
			}
		}
		return routeDecision{
			route:     model.RouteAssessment,
			nextStage: model.StageConclusion,
			concluded: true,
		}
	}

	selected := e.classifier.Classify(text)
	if selected == model.RouteAssessment && state.AssessmentStage == model.StageIntake {
		return routeDecision{
			route:     model.RouteAssessment,
			questions: e.questions.IntakeQuestions(text),
			nextStage: model.StageAwaitingFollowup,
		}
	}
	return routeDecision{route: selected, nextStage: state.AssessmentStage}
}

// applyAssessmentState folds the routing outcome into the next state:
// stage advance, evidence accumulation, and the SCEB flags.
func (e *Engine) applyAssessmentState(next *model.DialogueState, decision routeDecision, text string, emotionScore int) {
	wasFollowup := next.AssessmentStage == model.StageAwaitingFollowup ||
		next.AssessmentStage == model.StageGapFollowup

	if wasFollowup {
		next.FollowupAnswers = append(next.FollowupAnswers, text)
		next.SCEB.Cognition = true
	} else if decision.nextStage == model.StageAwaitingFollowup {
		next.OpeningMessage = text
		next.SCEB.Situation = true
	}
	if emotionScore > 0 {
		next.SCEB.Emotion = true
	}
	if decision.concluded {
		next.SCEB.Behavior = true
		next.SafetyCheckCompleted = true
	}
	next.AssessmentStage = decision.nextStage
}

// reply produces the assistant reply for the decided route. Question turns
// are deterministic; crisis and conclusion turns invoke the generation
// collaborator with one retry, and the crisis route falls back to the
// static resource message rather than failing.
func (e *Engine) reply(ctx context.Context, tenantID, conversationID string, decision routeDecision, mode model.AdaptiveMode, state *model.DialogueState, modelName string) (string, []model.CrisisResource, error) {
	if decision.route == model.RouteAssessment && len(decision.questions) > 0 {
		return renderQuestions(decision.questions), nil, nil
	}

	system := buildSystemPrompt(mode, state.Phase)
	instructions := routeInstructions(decision.route)
	if decision.concluded {
		instructions += "\n\n收集到的信息：\n" + state.OpeningMessage
		for _, answer := range state.FollowupAnswers {
			instructions += "\n" + answer
		}
	}

	generated, err := e.generate(ctx, tenantID, conversationID, decision.route, system, instructions, modelName)
	if decision.route == model.RouteCrisis {
		if err != nil {
			// The static resource block is guaranteed even on total
			// generation failure.
			return crisisFallbackReply, crisisResources, nil
		}
		return generated, crisisResources, nil
	}
	if err != nil {
		return "", nil, err
	}
	return generated, nil, nil
}

// generate calls the text-generation collaborator with one retry. Caller
// cancellation is propagated and never retried.
func (e *Engine) generate(ctx context.Context, tenantID, conversationID string, routeName model.Route, system, instructions, modelName string) (string, error) {
	messages, err := e.trailingHistory(ctx, tenantID, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to load generation context: %w", err)
	}

	chat := make([]llm.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
			continue
		}
		chat = append(chat, llm.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	req := &llm.CompletionRequest{
		Model:     modelName,
		System:    system + "\n\n" + instructions,
		Messages:  chat,
		MaxTokens: 4096,
	}
	if req.Model == "" {
		req.Model = e.defaultModel
	}

	start := time.Now()
	resp, err := e.deps.Generator.Complete(ctx, req)
	if err != nil && ctx.Err() == nil {
		resp, err = e.deps.Generator.Complete(ctx, req)
	}
	if err != nil {
		metrics.RecordGeneration(req.Model, string(routeName), "error", time.Since(start).Seconds(), 0, 0)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	metrics.RecordGeneration(resp.Model, string(routeName), "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	return resp.Content, nil
}

// trailingHistory pages to the end of the stream and returns the newest
// historyWindow messages in order. The tail must include the turn's own user
// message, which was persisted before generation.
func (e *Engine) trailingHistory(ctx context.Context, tenantID, conversationID string) ([]model.Message, error) {
	var all []model.Message
	var after uint64
	for {
		page, lastSeq, hasMore, err := e.deps.Messages.GetMessages(ctx, tenantID, conversationID, after, historyWindow)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if !hasMore || lastSeq == 0 {
			break
		}
		after = lastSeq
	}
	if len(all) > historyWindow {
		all = all[len(all)-historyWindow:]
	}
	return all, nil
}

// recordReport appends a longitudinal assessment snapshot on safety-check
// turns and on assessment conclusion. Best-effort: failures are logged.
func (e *Engine) recordReport(ctx context.Context, tenantID, conversationID string, risk *model.RiskSignalResult, riskTriggered bool, state *model.DialogueState, log *logger.Logger) {
	if !riskTriggered && state.AssessmentStage != model.StageConclusion {
		return
	}
	err := e.deps.Reports.Append(ctx, &model.AssessmentReport{
		ConversationID: conversationID,
		TenantID:       tenantID,
		RiskLevel:      risk.Level,
		Summary:        fmt.Sprintf("turn %d: level=%s score=%d", state.Turn, risk.Level, risk.Score),
	})
	if err != nil {
		log.Warn("failed to append assessment report", zap.Error(err))
	}
}

// effectiveSafety merges the audited upstream label with the literal risk
// tier for the persona selector's hard-override rule.
func effectiveSafety(audit *model.SafetyAudit, level model.RiskLevel, escalated bool) model.SafetyLabel {
	if escalated || level == model.RiskCrisis {
		return model.SafetyCrisis
	}
	if level == model.RiskHigh {
		return model.SafetyUrgent
	}
	if audit != nil {
		return audit.Level
	}
	return model.SafetyNormal
}
