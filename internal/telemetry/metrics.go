package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	CandidatesTotal *prometheus.CounterVec
	RemoteErrors    *prometheus.CounterVec
}

// NewMetrics creates the sync metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoicebridge_sync_runs_total",
				Help: "Total number of sync runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "invoicebridge_sync_run_duration_seconds",
				Help:    "Sync run duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		CandidatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoicebridge_sync_candidates_total",
				Help: "Total candidates handled by outcome and reason (skip reason or failing stage)",
			},
			[]string{"outcome", "reason"},
		),
		RemoteErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoicebridge_remote_errors_total",
				Help: "Total errors from remote systems by system and error type",
			},
			[]string{"system", "error_type"},
		),
	}
}

// RecordRun records a finished (or refused) run.
func (m *Metrics) RecordRun(outcome string, duration float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		m.RunDuration.Observe(duration)
	}
}

// RecordCandidate records the outcome of one candidate.
func (m *Metrics) RecordCandidate(outcome, reason string) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(outcome, reason).Inc()
}

// RecordError records a remote system error.
func (m *Metrics) RecordError(system, errorType string) {
	if m == nil {
		return
	}
	m.RemoteErrors.WithLabelValues(system, errorType).Inc()
}
