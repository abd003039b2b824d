// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RiskClassificationsTotal tracks per-message risk tier classifications.
	RiskClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_risk_classifications_total",
			Help: "Total risk tier classifications by level",
		},
		[]string{"level"},
	)

	// RouteSelectionsTotal tracks reply-strategy route selections.
	RouteSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_route_selections_total",
			Help: "Total route selections by route",
		},
		[]string{"route"},
	)

	// SafetyDowngradesTotal tracks upstream safety labels downgraded by the
	// guard corrector.
	SafetyDowngradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_safety_downgrades_total",
			Help: "Total upstream safety labels downgraded to normal",
		},
		[]string{"upstream_level"},
	)

	// EscalationsTotal tracks follow-up answers escalated to the crisis route.
	EscalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_followup_escalations_total",
			Help: "Total follow-up chains escalated to crisis",
		},
	)

	// StuckLoopsTotal tracks stuck-loop detections by type.
	StuckLoopsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loopwatch_detections_total",
			Help: "Total stuck-loop detections by event type",
		},
		[]string{"type"},
	)

	// AdaptiveModesTotal tracks persona tone-modifier selections.
	AdaptiveModesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persona_mode_selections_total",
			Help: "Total adaptive mode selections by mode",
		},
		[]string{"mode"},
	)

	// GenerationDuration tracks LLM generation duration by route.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_generation_duration_seconds",
			Help:    "LLM generation duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "route", "status"},
	)

	// GenerationTokensTotal tracks LLM tokens processed.
	GenerationTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// MessagesTotal tracks total messages persisted.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"tenant_id", "role"},
	)

	// ConversationsTotal tracks total conversations created.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
		[]string{"tenant_id"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGeneration records metrics for one LLM generation call.
func RecordGeneration(model, route, status string, duration float64, tokensIn, tokensOut int) {
	GenerationDuration.WithLabelValues(model, route, status).Observe(duration)
	GenerationTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	GenerationTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}
