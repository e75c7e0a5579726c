// Package metrics exposes the engine's prometheus instrumentation. The
// collectors register on the default registry and are served by the
// metrics router's /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrasift_evaluations_total",
		Help: "Evaluation runs by final status.",
	}, []string{"status"})

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "terrasift_evaluation_duration_seconds",
		Help:    "Wall time of full evaluation runs, all tiers included.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	applySurvivorRatio = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "terrasift_apply_survivor_ratio",
		Help:    "Fraction of the eligible population surviving the apply phase.",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrasift_fallback_tiers_total",
		Help: "Runs resolved by a fallback tier rather than the primary configuration.",
	}, []string{"tier"})
)

// EvaluationFinished records a completed, cancelled or exhausted run.
func EvaluationFinished(status string, elapsed time.Duration) {
	evaluationsTotal.WithLabelValues(status).Inc()
	evaluationDuration.Observe(elapsed.Seconds())
}

// ApplySurvivors records how selective the apply phase was.
func ApplySurvivors(survivors, total int) {
	if total > 0 {
		applySurvivorRatio.Observe(float64(survivors) / float64(total))
	}
}

// FallbackUsed records that a relaxed tier produced the adopted result.
func FallbackUsed(tier string) {
	fallbacksTotal.WithLabelValues(tier).Inc()
}
