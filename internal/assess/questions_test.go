package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeQuestions(t *testing.T) {
	gen := NewGenerator(DefaultKeywords())

	t.Run("impact already disclosed asks only duration", func(t *testing.T) {
		questions := gen.IntakeQuestions("最近感觉整个人都被掏空了，什么都不想做")
		require.Len(t, questions, 1)
		assert.Equal(t, CategoryDuration, questions[0].Category)
	})

	t.Run("nothing disclosed asks duration and impact", func(t *testing.T) {
		questions := gen.IntakeQuestions("我心情很差")
		require.Len(t, questions, 2)
		assert.Equal(t, CategoryDuration, questions[0].Category)
		assert.Equal(t, CategoryImpact, questions[1].Category)
	})

	t.Run("risk language replaces the impact slot", func(t *testing.T) {
		questions := gen.IntakeQuestions("我有时候想死")
		require.Len(t, questions, 2)
		assert.Equal(t, CategoryDuration, questions[0].Category)
		assert.Equal(t, CategoryRisk, questions[1].Category)
		assert.Len(t, questions[1].Options, 4)
	})

	t.Run("severity language appends the risk scale", func(t *testing.T) {
		// Duration and impact are covered, so the risk question stands alone.
		questions := gen.IntakeQuestions("已经崩溃一个月了，完全没法工作")
		require.Len(t, questions, 1)
		assert.Equal(t, CategoryRisk, questions[0].Category)
	})

	t.Run("never returns zero questions", func(t *testing.T) {
		questions := gen.IntakeQuestions("这种状态一周了，影响上班")
		require.Len(t, questions, 1)
		assert.Equal(t, CategoryDuration, questions[0].Category)
	})

	t.Run("vague recently is not duration evidence", func(t *testing.T) {
		questions := gen.IntakeQuestions("最近很难过，吃不下饭")
		require.NotEmpty(t, questions)
		assert.Equal(t, CategoryDuration, questions[0].Category)
	})
}
