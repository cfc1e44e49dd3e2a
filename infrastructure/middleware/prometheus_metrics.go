// Package middleware provides cross-cutting concerns for the evaluation
// harness.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of case throughput,
// latency, and scorer health for the evaluation harness.
type PrometheusMetrics struct {
	casesTotal     *prometheus.CounterVec
	caseDuration   *prometheus.HistogramVec
	scorerFailures *prometheus.CounterVec
	runsTotal      prometheus.Counter
	runDuration    prometheus.Histogram
	runPassRate    prometheus.Gauge
	runAvgScore    prometheus.Gauge
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		casesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eval_cases_total",
				Help: "Total number of evaluated cases by outcome.",
			},
			[]string{"status"},
		),
		caseDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eval_case_duration_seconds",
				Help:    "Wall-clock time spent evaluating a single case.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		scorerFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eval_scorer_failures_total",
				Help: "Total number of scorer invocations that returned an error.",
			},
			[]string{"scorer"},
		),
		runsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "eval_runs_total",
				Help: "Total number of completed evaluation runs.",
			},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "eval_run_duration_seconds",
				Help:    "Wall-clock time of a whole evaluation run.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		runPassRate: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "eval_run_pass_rate",
				Help: "Pass rate of the most recent evaluation run.",
			},
		),
		runAvgScore: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "eval_run_avg_score",
				Help: "Average score of the most recent evaluation run.",
			},
		),
	}
}

// RecordCase implements the MetricsCollector interface by counting the
// case outcome and observing its latency.
func (pm *PrometheusMetrics) RecordCase(status string, duration time.Duration) {
	pm.casesTotal.WithLabelValues(status).Inc()
	pm.caseDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordScorerFailure implements the MetricsCollector interface by
// counting scorer errors per scorer name.
func (pm *PrometheusMetrics) RecordScorerFailure(scorer string) {
	pm.scorerFailures.WithLabelValues(scorer).Inc()
}

// RecordRun implements the MetricsCollector interface by recording
// run-level aggregates.
func (pm *PrometheusMetrics) RecordRun(summary domain.EvalSummary, duration time.Duration) {
	pm.runsTotal.Inc()
	pm.runDuration.Observe(duration.Seconds())
	pm.runPassRate.Set(summary.PassRate)
	pm.runAvgScore.Set(summary.AvgScore)
}
