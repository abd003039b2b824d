package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

func TestConversationLifecycle(t *testing.T) {
	s := NewConversationStore()
	ctx := context.Background()

	conv, err := s.Create(ctx, "tenant-1", "user-1", &model.CreateConversationRequest{Title: "第一次咨询"})
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)

	got, err := s.Get(ctx, "tenant-1", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "第一次咨询", got.Title)

	require.NoError(t, s.Touch(ctx, "tenant-1", conv.ID, 2))
	got, err = s.Get(ctx, "tenant-1", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MessageCount)

	require.NoError(t, s.Delete(ctx, "tenant-1", conv.ID))
	_, err = s.Get(ctx, "tenant-1", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationTenantIsolation(t *testing.T) {
	s := NewConversationStore()
	ctx := context.Background()

	conv, err := s.Create(ctx, "tenant-1", "user-1", &model.CreateConversationRequest{Title: "t"})
	require.NoError(t, err)

	_, err = s.Get(ctx, "tenant-2", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	resp, err := s.List(ctx, "tenant-2", 20, 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Conversations)
	assert.Equal(t, 0, resp.Total)
}

func TestListPaginatesInCreationOrder(t *testing.T) {
	s := NewConversationStore()
	ctx := context.Background()

	titles := []string{"第一次", "第二次", "第三次"}
	for _, title := range titles {
		_, err := s.Create(ctx, "tenant-1", "user-1", &model.CreateConversationRequest{Title: title})
		require.NoError(t, err)
	}

	first, err := s.List(ctx, "tenant-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, first.Conversations, 2)
	assert.Equal(t, "第一次", first.Conversations[0].Title)
	assert.Equal(t, "第二次", first.Conversations[1].Title)
	assert.True(t, first.HasMore)

	second, err := s.List(ctx, "tenant-1", 2, 2)
	require.NoError(t, err)
	require.Len(t, second.Conversations, 1)
	assert.Equal(t, "第三次", second.Conversations[0].Title)
	assert.False(t, second.HasMore)
}

func TestStateStoreClonesOnReadAndWrite(t *testing.T) {
	s := NewStateStore()

	// Unknown conversation gets a fresh initial state.
	initial := s.State("conv-1")
	assert.Equal(t, 0, initial.Turn)
	assert.Equal(t, model.StageIntake, initial.AssessmentStage)

	state := model.NewDialogueState()
	state.Turn = 3
	state.RiskHistory = []model.RiskLevel{model.RiskMedium}
	s.Put("conv-1", state)

	// Mutating what the caller holds must not leak into the cache.
	state.Turn = 99
	state.RiskHistory[0] = model.RiskCrisis

	got := s.State("conv-1")
	assert.Equal(t, 3, got.Turn)
	assert.Equal(t, []model.RiskLevel{model.RiskMedium}, got.RiskHistory)

	// Nor may mutating a read result.
	got.Turn = 77
	assert.Equal(t, 3, s.State("conv-1").Turn)
}

func TestReportStoreRecentFirst(t *testing.T) {
	s := NewReportStore()
	ctx := context.Background()

	for _, level := range []model.RiskLevel{model.RiskLow, model.RiskMedium, model.RiskHigh} {
		require.NoError(t, s.Append(ctx, &model.AssessmentReport{
			ConversationID: "conv-1",
			RiskLevel:      level,
		}))
	}

	reports, err := s.RecentFirst(ctx, "conv-1", 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, model.RiskHigh, reports[0].RiskLevel)
	assert.Equal(t, model.RiskMedium, reports[1].RiskLevel)
}
