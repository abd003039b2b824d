package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heartline-ai/counseling-platform/internal/llm"
	"github.com/heartline-ai/counseling-platform/internal/model"
)

// QuickClassification is the preliminary safety label an upstream model
// asserts for a message, together with its reasoning. The engine audits
// this label against the literal text; it never asks a model to do the
// literal tiering itself.
type QuickClassification struct {
	Safety    model.SafetyLabel `json:"safety"`
	Reasoning string            `json:"reasoning"`
}

// QuickClassifier produces the preliminary safety label.
type QuickClassifier interface {
	ClassifySafety(ctx context.Context, text string) (*QuickClassification, error)
}

const quickSystemPrompt = `你是心理咨询消息的初筛分类器。对用户消息输出 JSON：
{"safety": "normal" | "urgent" | "crisis", "reasoning": "<一句话理由>"}
只输出 JSON，不要输出其他内容。`

// LLMQuickClassifier implements QuickClassifier over an llm.Client.
type LLMQuickClassifier struct {
	client llm.Client
	model  string
}

// NewLLMQuickClassifier creates a quick classifier backed by the given
// client.
func NewLLMQuickClassifier(client llm.Client, model string) *LLMQuickClassifier {
	return &LLMQuickClassifier{client: client, model: model}
}

// ClassifySafety returns the model's preliminary label. Unparseable output
// is reported with whatever label text came back so the guard can treat it
// as urgent.
func (c *LLMQuickClassifier) ClassifySafety(ctx context.Context, text string) (*QuickClassification, error) {
	resp, err := c.client.Complete(ctx, &llm.CompletionRequest{
		Model:     c.model,
		System:    quickSystemPrompt,
		Messages:  []llm.ChatMessage{{Role: "user", Content: text}},
		MaxTokens: 128,
	})
	if err != nil {
		return nil, fmt.Errorf("quick safety classification failed: %w", err)
	}

	var result QuickClassification
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &result); err != nil {
		// Hand the raw text through as the label; the guard audits
		// unrecognized labels as urgent.
		return &QuickClassification{Safety: model.SafetyLabel(resp.Content)}, nil
	}
	return &result, nil
}
