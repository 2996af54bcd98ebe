// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScoringRuns counts completed scoring runs by recommendation.
	ScoringRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safecode_scoring_runs_total",
		Help: "Completed confidence scoring runs",
	}, []string{"recommendation", "validation_status"})

	// OverallScore observes the overall confidence score of every run.
	OverallScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "safecode_overall_score",
		Help:    "Overall confidence score of scored snippets",
		Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})

	// SkippedRules counts malformed rules skipped during scoring.
	SkippedRules = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safecode_skipped_rules_total",
		Help: "Malformed rules skipped during scoring",
	})

	// CatalogUnavailable counts scoring runs that could not load the selector catalog.
	CatalogUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safecode_selector_catalog_unavailable_total",
		Help: "Scoring runs whose selector catalog could not be loaded",
	})

	// Transitions counts lifecycle transitions by outcome.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safecode_transitions_total",
		Help: "Review lifecycle transition attempts",
	}, []string{"target", "outcome"})

	// GenerationDuration observes upstream generation latency by provider.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "safecode_generation_duration_seconds",
		Help:    "Latency of upstream code generation calls",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	}, []string{"provider", "outcome"})

	// MCPToolCalls counts MCP tool calls by tool and outcome (ok, tool_error, error).
	MCPToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safecode_mcp_tool_calls_total",
		Help: "MCP tool calls",
	}, []string{"tool", "outcome"})

	// MCPToolDuration observes MCP tool call latency.
	MCPToolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "safecode_mcp_tool_duration_seconds",
		Help:    "Latency of MCP tool calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})
)

// Transition outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeIllegal   = "illegal"
	OutcomeForbidden = "forbidden"
	OutcomeStale     = "stale"
	OutcomeError     = "error"
)
