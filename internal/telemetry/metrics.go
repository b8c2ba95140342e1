// Copyright 2025 Certen Protocol
//
// Verification Metrics
// Prometheus counters/histograms for verification outcomes, registered
// against a caller-supplied registry rather than the global default,
// avoiding package-level mutable state wherever a constructor can take
// the dependency instead.

package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments a verification run updates.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	chainDepth    prometheus.Histogram
}

// NewMetrics registers verification metrics against reg and returns the
// handle used to record outcomes.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trustchain",
			Name:      "verification_runs_total",
			Help:      "Total verification runs by outcome and error kind.",
		}, []string{"outcome", "error_kind"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trustchain",
			Name:      "verification_duration_seconds",
			Help:      "Verification run wall-clock duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		chainDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trustchain",
			Name:      "did_chain_depth",
			Help:      "Number of links in a reconstructed DID chain.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 13, 21},
		}),
	}
	reg.MustRegister(m.runsTotal, m.runDuration, m.chainDepth)
	return m
}

// ObserveRun records one completed verification run.
func (m *Metrics) ObserveRun(outcome, errorKind string, duration time.Duration, chainDepth int) {
	m.runsTotal.WithLabelValues(outcome, errorKind).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if chainDepth > 0 {
		m.chainDepth.Observe(float64(chainDepth))
	}
}
