// Package metrics exposes the engine's Prometheus instruments behind a small
// recording interface so services can run with a no-op in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics interface {
	RecordMatchesGenerated(round string, count int)
	RecordRoundAdvanced(phase string)
	RecordScoreRejected(reason string)
	RecordPublishFailure(eventType string)
	RecordRollupFailure(stage string)
	RecordOperationDuration(operation string, d time.Duration)
}

type Prometheus struct {
	registry          *prometheus.Registry
	matchesGenerated  *prometheus.CounterVec
	roundsAdvanced    *prometheus.CounterVec
	scoreRejections   *prometheus.CounterVec
	publishFailures   *prometheus.CounterVec
	rollupFailures    *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewPrometheus registers every instrument on a fresh registry.
func NewPrometheus() *Prometheus {
	m := &Prometheus{
		registry: prometheus.NewRegistry(),
		matchesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "matches_generated_total",
			Help:      "Matches written by round generation.",
		}, []string{"round"}),
		roundsAdvanced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "rounds_advanced_total",
			Help:      "Successful round advances by phase.",
		}, []string{"phase"}),
		scoreRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "score_rejections_total",
			Help:      "Match updates rejected by validation or the score rule.",
		}, []string{"reason"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "event_publish_failures_total",
			Help:      "Events that could not be published.",
		}, []string{"type"}),
		rollupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "rollup_failures_total",
			Help:      "Best-effort completion steps that failed.",
		}, []string{"stage"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bracket",
			Name:      "operation_duration_seconds",
			Help:      "Duration of orchestrator operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	m.registry.MustRegister(
		m.matchesGenerated,
		m.roundsAdvanced,
		m.scoreRejections,
		m.publishFailures,
		m.rollupFailures,
		m.operationDuration,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Prometheus) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Prometheus) RecordMatchesGenerated(round string, count int) {
	m.matchesGenerated.WithLabelValues(round).Add(float64(count))
}

func (m *Prometheus) RecordRoundAdvanced(phase string) {
	m.roundsAdvanced.WithLabelValues(phase).Inc()
}

func (m *Prometheus) RecordScoreRejected(reason string) {
	m.scoreRejections.WithLabelValues(reason).Inc()
}

func (m *Prometheus) RecordPublishFailure(eventType string) {
	m.publishFailures.WithLabelValues(eventType).Inc()
}

func (m *Prometheus) RecordRollupFailure(stage string) {
	m.rollupFailures.WithLabelValues(stage).Inc()
}

func (m *Prometheus) RecordOperationDuration(operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

type nop struct{}

// NewNop records nothing.
func NewNop() Metrics { return nop{} }

func (nop) RecordMatchesGenerated(string, int)            {}
func (nop) RecordRoundAdvanced(string)                    {}
func (nop) RecordScoreRejected(string)                    {}
func (nop) RecordPublishFailure(string)                   {}
func (nop) RecordRollupFailure(string)                    {}
func (nop) RecordOperationDuration(string, time.Duration) {}
