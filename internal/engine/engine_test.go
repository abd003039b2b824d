package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartline-ai/counseling-platform/internal/analysis"
	"github.com/heartline-ai/counseling-platform/internal/llm"
	"github.com/heartline-ai/counseling-platform/internal/model"
	"github.com/heartline-ai/counseling-platform/internal/store"
	"github.com/heartline-ai/counseling-platform/pkg/logger"
)

type memoryMessages struct {
	mu       sync.Mutex
	messages []model.Message
	seq      uint64
}

func (m *memoryMessages) PublishMessage(ctx context.Context, msg *model.Message) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	stored := *msg
	stored.Sequence = m.seq
	m.messages = append(m.messages, stored)
	return m.seq, nil
}

func (m *memoryMessages) GetMessages(ctx context.Context, tenantID, conversationID string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID && msg.Sequence > afterSequence && len(out) < limit {
			out = append(out, msg)
		}
	}
	var last uint64
	if len(out) > 0 {
		last = out[len(out)-1].Sequence
	}
	return out, last, len(out) == limit, nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	content string
	err     error
	lastReq *llm.CompletionRequest
}

func (g *fakeGenerator) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	g.mu.Lock()
	g.calls++
	g.lastReq = req
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return &llm.CompletionResponse{Content: g.content, Model: req.Model}, nil
}

func (g *fakeGenerator) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	return g.Complete(ctx, req)
}

func (g *fakeGenerator) Name() string     { return "fake" }
func (g *fakeGenerator) Models() []string { return nil }

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGenerator) lastRequest() *llm.CompletionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastReq
}

type fakeEmotion struct {
	score int
}

func (f *fakeEmotion) AnalyzeEmotion(ctx context.Context, text string) (*analysis.EmotionResult, error) {
	return &analysis.EmotionResult{Label: "sadness", Score: f.score}, nil
}

type fakeQuick struct {
	safety model.SafetyLabel
}

func (f *fakeQuick) ClassifySafety(ctx context.Context, text string) (*analysis.QuickClassification, error) {
	return &analysis.QuickClassification{Safety: f.safety}, nil
}

type engineFixture struct {
	engine    *Engine
	messages  *memoryMessages
	states    *store.StateStore
	reports   *store.ReportStore
	generator *fakeGenerator
}

func newFixture(gen *fakeGenerator, emotionScore int, safety model.SafetyLabel) *engineFixture {
	messages := &memoryMessages{}
	states := store.NewStateStore()
	reports := store.NewReportStore()
	eng := New(Deps{
		Messages:  messages,
		States:    states,
		Reports:   reports,
		Generator: gen,
		Emotion:   &fakeEmotion{score: emotionScore},
		Quick:     &fakeQuick{safety: safety},
		Logger:    logger.NewNop(),
	}, "test-model")
	return &engineFixture{engine: eng, messages: messages, states: states, reports: reports, generator: gen}
}

func TestEvaluateIntakeTurn(t *testing.T) {
	gen := &fakeGenerator{content: "should not be called"}
	f := newFixture(gen, 3, model.SafetyNormal)

	resp, err := f.engine.Evaluate(context.Background(), "tenant-1", "conv-1",
		&model.SendMessageRequest{Content: "我心情很差"})
	require.NoError(t, err)

	assert.Equal(t, model.RouteAssessment, resp.Route)
	require.Len(t, resp.GeneratedQuestions, 2)
	assert.Contains(t, resp.Reply, resp.GeneratedQuestions[0].Text)

	// Question turns are deterministic: no generation call.
	assert.Equal(t, 0, gen.callCount())

	assert.Equal(t, 1, resp.NextState.Turn)
	assert.Equal(t, model.StageAwaitingFollowup, resp.NextState.AssessmentStage)
	assert.Equal(t, "我心情很差", resp.NextState.OpeningMessage)
	assert.True(t, resp.NextState.SCEB.Situation)

	// Both the user message and the reply are persisted.
	stored, _, _, err := f.messages.GetMessages(context.Background(), "tenant-1", "conv-1", 0, 10)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, model.RoleUser, stored[0].Role)
	assert.Equal(t, model.RoleAssistant, stored[1].Role)
}

func TestEvaluateCrisisFallsBackWhenGenerationFails(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	f := newFixture(gen, 9, model.SafetyCrisis)

	resp, err := f.engine.Evaluate(context.Background(), "tenant-1", "conv-1",
		&model.SendMessageRequest{Content: "我想自杀"})
	require.NoError(t, err)

	assert.Equal(t, model.RouteCrisis, resp.Route)
	assert.Equal(t, model.RiskCrisis, resp.RiskAssessment.Level)
	assert.True(t, resp.RiskAssessment.ShouldTriggerSafetyAssessment)
	assert.Equal(t, model.PhaseSafetyCheck, resp.NextState.Phase)
	assert.Equal(t, model.ModeGuardian, resp.AdaptiveMode)

	// The static resource block reaches the user even on total failure.
	assert.NotEmpty(t, resp.CrisisResources)
	assert.Contains(t, resp.Reply, "12356")

	// Failed once, retried once.
	assert.Equal(t, 2, gen.callCount())

	// A safety-check turn records a longitudinal snapshot.
	reports, err := f.reports.RecentFirst(context.Background(), "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, model.RiskCrisis, reports[0].RiskLevel)
}

func TestEvaluateSupportRoute(t *testing.T) {
	gen := &fakeGenerator{content: "我在听，你慢慢说。"}
	f := newFixture(gen, 4, model.SafetyNormal)

	resp, err := f.engine.Evaluate(context.Background(), "tenant-1", "conv-1",
		&model.SendMessageRequest{Content: "我只想倾诉一下，不要建议"})
	require.NoError(t, err)

	assert.Equal(t, model.RouteSupport, resp.Route)
	assert.Equal(t, "我在听，你慢慢说。", resp.Reply)
	assert.Empty(t, resp.GeneratedQuestions)
	assert.Empty(t, resp.CrisisResources)
}

func TestEvaluateGenerationUsesTrailingHistory(t *testing.T) {
	gen := &fakeGenerator{content: "我在听。"}
	f := newFixture(gen, 2, model.SafetyNormal)
	ctx := context.Background()

	// Seed a conversation longer than the generation window.
	for i := 0; i < 60; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		_, err := f.messages.PublishMessage(ctx, &model.Message{
			ConversationID: "conv-1",
			TenantID:       "tenant-1",
			Role:           role,
			Content:        fmt.Sprintf("旧消息 %d", i),
		})
		require.NoError(t, err)
	}

	current := "我只想倾诉一下，不要建议"
	_, err := f.engine.Evaluate(ctx, "tenant-1", "conv-1",
		&model.SendMessageRequest{Content: current})
	require.NoError(t, err)

	req := gen.lastRequest()
	require.NotNil(t, req)
	require.Len(t, req.Messages, historyWindow)

	// The context is the newest window, ending with this turn's message.
	assert.Equal(t, current, req.Messages[len(req.Messages)-1].Content)
	assert.Equal(t, "旧消息 59", req.Messages[len(req.Messages)-2].Content)
}

func TestEvaluateNonCrisisGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	f := newFixture(gen, 2, model.SafetyNormal)

	_, err := f.engine.Evaluate(context.Background(), "tenant-1", "conv-1",
		&model.SendMessageRequest{Content: "只想倾诉，不需要建议"})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, 2, gen.callCount())
}

func TestEvaluateFollowupEscalation(t *testing.T) {
	gen := &fakeGenerator{content: "我很担心你的安全。"}
	f := newFixture(gen, 5, model.SafetyNormal)
	ctx := context.Background()

	first, err := f.engine.Evaluate(ctx, "tenant-1", "conv-1",
		&model.SendMessageRequest{Content: "我心情很差"})
	require.NoError(t, err)
	require.Equal(t, model.StageAwaitingFollowup, first.NextState.AssessmentStage)

	second, err := f.engine.Evaluate(ctx, "tenant-1", "conv-1",
		&model.SendMessageRequest{Content: "经常有自杀的想法"})
	require.NoError(t, err)

	assert.Equal(t, model.RouteCrisis, second.Route)
	assert.True(t, second.RiskAssessment.ShouldTriggerSafetyAssessment)
	assert.Equal(t, model.PhaseSafetyCheck, second.NextState.Phase)
	assert.Equal(t, model.ModeGuardian, second.AdaptiveMode)
	assert.NotEmpty(t, second.CrisisResources)
	assert.Contains(t, second.NextState.FollowupAnswers, "经常有自杀的想法")
}

func TestEvaluateFollowupChainToConclusion(t *testing.T) {
	gen := &fakeGenerator{content: "谢谢你愿意说这么多，我们一起总结一下。"}
	f := newFixture(gen, 3, model.SafetyNormal)
	ctx := context.Background()

	first, err := f.engine.Evaluate(ctx, "tenant-1", "conv-1",
		&model.SendMessageRequest{Content: "我心情很差"})
	require.NoError(t, err)
	require.Equal(t, model.StageAwaitingFollowup, first.NextState.AssessmentStage)

	// The answer covers duration but not impact: one gap question follows.
	second, err := f.engine.Evaluate(ctx, "tenant-1", "conv-1",
		&model.SendMessageRequest{Content: "大概两周了"})
	require.NoError(t, err)
	require.Equal(t, model.StageGapFollowup, second.NextState.AssessmentStage)
	require.Len(t, second.GeneratedQuestions, 1)
	assert.Equal(t, "impact", second.GeneratedQuestions[0].Category)

	// The gap answer completes the evidence: the chain concludes.
	third, err := f.engine.Evaluate(ctx, "tenant-1", "conv-1",
		&model.SendMessageRequest{Content: "影响了上班，白天没精神"})
	require.NoError(t, err)

	assert.Equal(t, model.StageConclusion, third.NextState.AssessmentStage)
	assert.Equal(t, gen.content, third.Reply)
	assert.True(t, third.NextState.SCEB.Behavior)
	assert.True(t, third.NextState.SafetyCheckCompleted)
	assert.Equal(t, []string{"大概两周了", "影响了上班，白天没精神"}, third.NextState.FollowupAnswers)

	// Conclusion also records a longitudinal snapshot.
	reports, err := f.reports.RecentFirst(ctx, "conv-1", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, reports)
}
