package loopwatch

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/heartline-ai/counseling-platform/internal/model"
	"github.com/heartline-ai/counseling-platform/pkg/logger"
	"github.com/heartline-ai/counseling-platform/pkg/metrics"
)

// Config holds the detector thresholds. These are untuned heuristics and
// stay configurable rather than baked-in literals.
type Config struct {
	// RepetitionWindow is how many trailing assistant messages must all be
	// pairwise similar.
	RepetitionWindow int

	// RefusalWindow is how many trailing user messages must all match a
	// refusal phrase.
	RefusalWindow int

	// SimilarityThreshold is the minimum pairwise Dice coefficient for the
	// repetition detector.
	SimilarityThreshold float64

	// PhaseTimeoutMessages is the message count past which a conversation
	// still in intake counts as timed out.
	PhaseTimeoutMessages int

	// RefusalPhrases is the injected refusal phrase family.
	RefusalPhrases []string
}

// DefaultConfig returns the production detector configuration.
func DefaultConfig() Config {
	return Config{
		RepetitionWindow:     3,
		RefusalWindow:        2,
		SimilarityThreshold:  0.85,
		PhaseTimeoutMessages: 20,
		RefusalPhrases: []string{
			"不想说", "不想聊", "别问了", "没什么好说的", "不知道",
			"随便", "算了", "不想回答", "问这些干嘛",
		},
	}
}

// minHistory is the message count below which all detectors are a no-op.
const minHistory = 4

// HistoryReader reads the full ordered message history of a conversation.
type HistoryReader interface {
	History(ctx context.Context, tenantID, conversationID string) ([]model.Message, error)
}

// StateReader reads the cached dialogue state of a conversation.
type StateReader interface {
	State(conversationID string) *model.DialogueState
}

// EventSink persists optimization events. CreatePending must be atomic
// check-then-insert: it returns false without writing when a PENDING event
// with the same (conversation, type, subtype) already exists.
type EventSink interface {
	CreatePending(ctx context.Context, event *model.OptimizationEvent) (bool, error)
}

// Detector runs the three stuck-loop detectors over persisted history. It
// is designed for out-of-band execution, not the reply critical path.
type Detector struct {
	cfg     Config
	history HistoryReader
	states  StateReader
	events  EventSink
	log     *logger.Logger
}

// NewDetector creates a stuck-loop detector.
func NewDetector(cfg Config, history HistoryReader, states StateReader, events EventSink, log *logger.Logger) *Detector {
	return &Detector{cfg: cfg, history: history, states: states, events: events, log: log}
}

// Scan evaluates the detectors in fixed priority with short-circuit on the
// first hit: repetition, then refusal, then phase timeout. A detection is
// persisted best-effort; persistence failure never fails the scan.
func (d *Detector) Scan(ctx context.Context, tenantID, conversationID string) (*model.StuckLoopResult, error) {
	messages, err := d.history.History(ctx, tenantID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(messages) < minHistory {
		return nil, nil
	}

	detectors := []struct {
		subtype string
		run     func([]model.Message) *model.StuckLoopResult
	}{
		{"assistant", d.detectRepetition},
		{"user", d.detectRefusal},
		{"intake", func(msgs []model.Message) *model.StuckLoopResult {
			return d.detectPhaseTimeout(conversationID, msgs)
		}},
	}

	for _, det := range detectors {
		result := det.run(messages)
		if result == nil {
			continue
		}
		metrics.StuckLoopsTotal.WithLabelValues(string(result.Type)).Inc()
		d.persist(ctx, tenantID, conversationID, det.subtype, result)
		return result, nil
	}
	return nil, nil
}

// detectRepetition checks whether the last N assistant messages are all
// pairwise similar above the threshold.
func (d *Detector) detectRepetition(messages []model.Message) *model.StuckLoopResult {
	recent := lastByRole(messages, model.RoleAssistant, d.cfg.RepetitionWindow)
	if len(recent) < d.cfg.RepetitionWindow {
		return nil
	}

	var total float64
	var pairs int
	for i := 0; i < len(recent); i++ {
		for j := i + 1; j < len(recent); j++ {
			sim := DiceSimilarity(recent[i].Content, recent[j].Content)
			if sim < d.cfg.SimilarityThreshold {
				return nil
			}
			total += sim
			pairs++
		}
	}

	avg := total / float64(pairs)
	return &model.StuckLoopResult{
		IsStuck:  true,
		Type:     model.EventRepetition,
		Severity: int(math.Round(avg * 10)),
		Summary:  fmt.Sprintf("last %d assistant replies are near-identical (avg similarity %.2f)", len(recent), avg),
		Details:  map[string]any{"avg_similarity": avg, "window": len(recent)},
	}
}

// detectRefusal checks whether every one of the last M user messages
// matches a refusal phrase. A single match among M is not enough.
func (d *Detector) detectRefusal(messages []model.Message) *model.StuckLoopResult {
	recent := lastByRole(messages, model.RoleUser, d.cfg.RefusalWindow)
	if len(recent) < d.cfg.RefusalWindow {
		return nil
	}

	count := 0
	for _, msg := range recent {
		if d.matchesRefusal(msg.Content) {
			count++
		}
	}
	if count != d.cfg.RefusalWindow {
		return nil
	}

	severity := count * 3
	if severity > 10 {
		severity = 10
	}
	return &model.StuckLoopResult{
		IsStuck:  true,
		Type:     model.EventRefusal,
		Severity: severity,
		Summary:  fmt.Sprintf("last %d user messages all refuse to engage", count),
		Details:  map[string]any{"matched": count},
	}
}

// detectPhaseTimeout fires when a conversation still in intake has exceeded
// the message budget.
func (d *Detector) detectPhaseTimeout(conversationID string, messages []model.Message) *model.StuckLoopResult {
	state := d.states.State(conversationID)
	if state == nil || state.AssessmentStage != model.StageIntake {
		return nil
	}
	if len(messages) <= d.cfg.PhaseTimeoutMessages {
		return nil
	}

	overage := len(messages) - d.cfg.PhaseTimeoutMessages
	severity := 5 + overage/5
	if severity > 10 {
		severity = 10
	}
	return &model.StuckLoopResult{
		IsStuck:  true,
		Type:     model.EventPhaseTimeout,
		Severity: severity,
		Summary:  fmt.Sprintf("conversation still in intake after %d messages", len(messages)),
		Details:  map[string]any{"message_count": len(messages), "threshold": d.cfg.PhaseTimeoutMessages},
	}
}

// persist records the detection as an optimization event, deduplicated by
// (conversation, type, subtype). Best-effort telemetry: failures are logged
// and swallowed.
func (d *Detector) persist(ctx context.Context, tenantID, conversationID, subtype string, result *model.StuckLoopResult) {
	created, err := d.events.CreatePending(ctx, &model.OptimizationEvent{
		ConversationID: conversationID,
		TenantID:       tenantID,
		Type:           result.Type,
		Subtype:        subtype,
		Severity:       result.Severity,
		Summary:        result.Summary,
		Details:        result.Details,
	})
	if err != nil {
		d.log.Warn("failed to persist optimization event",
			zap.String("conversation_id", conversationID),
			zap.String("type", string(result.Type)),
			zap.Error(err),
		)
		return
	}
	if !created {
		d.log.Debug("pending optimization event already exists",
			zap.String("conversation_id", conversationID),
			zap.String("type", string(result.Type)),
		)
	}
}

func (d *Detector) matchesRefusal(text string) bool {
	folded := strings.ToLower(text)
	for _, p := range d.cfg.RefusalPhrases {
		if strings.Contains(folded, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// lastByRole returns up to n trailing messages with the given role,
// oldest first.
func lastByRole(messages []model.Message, role model.Role, n int) []model.Message {
	var picked []model.Message
	for i := len(messages) - 1; i >= 0 && len(picked) < n; i-- {
		if messages[i].Role == role {
			picked = append(picked, messages[i])
		}
	}
	// reverse back to chronological order
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked
}
