package route

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heartline-ai/counseling-platform/internal/model"
)

func TestClassify(t *testing.T) {
	classifier := NewClassifier(DefaultRules())

	tests := []struct {
		name string
		text string
		want model.Route
	}{
		{
			name: "vent request routes to support",
			text: "我只想倾诉一下，不要建议",
			want: model.RouteSupport,
		},
		{
			name: "explicit crisis phrase routes to crisis",
			text: "我已经写好遗书了",
			want: model.RouteCrisis,
		},
		{
			name: "farewell phrasing routes to crisis",
			text: "再见了这个世界",
			want: model.RouteCrisis,
		},
		{
			name: "vent rule is checked before crisis",
			text: "只想倾诉，有时候真的不想活",
			want: model.RouteSupport,
		},
		{
			name: "everything else defaults to assessment",
			text: "最近总是睡不好，情绪很低落",
			want: model.RouteAssessment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Classify(tt.text))
		})
	}
}
