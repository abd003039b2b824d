// Package analysis wraps the LLM-backed collaborator calls the engine
// consumes: per-message emotion analysis and the quick safety classifier
// whose output is only ever audited, never trusted.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/heartline-ai/counseling-platform/internal/llm"
)

// EmotionResult is the per-message emotion signal.
type EmotionResult struct {
	Label string `json:"label"`
	Score int    `json:"score"` // 0-10
}

// EmotionAnalyzer scores the emotional intensity of one message.
type EmotionAnalyzer interface {
	AnalyzeEmotion(ctx context.Context, text string) (*EmotionResult, error)
}

const emotionSystemPrompt = `你是情绪分析器。对用户消息输出 JSON：
{"label": "<主要情绪，如 sadness/anxiety/anger/neutral>", "score": <情绪强度 0-10 的整数>}
只输出 JSON，不要输出其他内容。`

// LLMEmotionAnalyzer implements EmotionAnalyzer over an llm.Client.
type LLMEmotionAnalyzer struct {
	client llm.Client
	model  string
}

// NewLLMEmotionAnalyzer creates an emotion analyzer backed by the given
// client.
func NewLLMEmotionAnalyzer(client llm.Client, model string) *LLMEmotionAnalyzer {
	return &LLMEmotionAnalyzer{client: client, model: model}
}

// AnalyzeEmotion classifies one message. A malformed model response is an
// error; callers fall back to a neutral score.
func (a *LLMEmotionAnalyzer) AnalyzeEmotion(ctx context.Context, text string) (*EmotionResult, error) {
	resp, err := a.client.Complete(ctx, &llm.CompletionRequest{
		Model:     a.model,
		System:    emotionSystemPrompt,
		Messages:  []llm.ChatMessage{{Role: "user", Content: text}},
		MaxTokens: 128,
	})
	if err != nil {
		return nil, fmt.Errorf("emotion analysis failed: %w", err)
	}

	var result EmotionResult
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &result); err != nil {
		return nil, fmt.Errorf("malformed emotion response: %w", err)
	}
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 10 {
		result.Score = 10
	}
	return &result, nil
}

// extractJSON trims any prose the model wrapped around the JSON object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
