package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	codeClaims = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "access_code_claim_attempts",
			Help:    "Attempts needed per successful code claim.",
			Buckets: []float64{1, 2, 3},
		},
		nil,
	)

	codeClaimConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_code_claim_conflicts_total",
			Help: "Conditional updates lost to a concurrent claim.",
		},
	)

	codePoolExhaustions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_code_pool_exhaustions_total",
			Help: "Allocation requests that found no allocatable code.",
		},
	)

	codeActivations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_code_activations_total",
			Help: "Codes consumed by a completed registration.",
		},
	)

	codeReaped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_code_reaped_total",
			Help: "Codes moved by the background workers, by transition.",
		},
		[]string{"transition"},
	)
)

// -------- Allocation helpers --------

func CodeClaimed(attempt int) {
	codeClaims.WithLabelValues().Observe(float64(attempt))
}

func CodeClaimConflict() { codeClaimConflicts.Inc() }

func CodePoolExhausted() { codePoolExhaustions.Inc() }

func CodeActivated() { codeActivations.Inc() }

// -------- Worker helpers --------

func CodesReleased(n int64) {
	codeReaped.WithLabelValues("reserved_to_unused").Add(float64(n))
}

func CodesExpired(n int64) {
	codeReaped.WithLabelValues("to_expired").Add(float64(n))
}
