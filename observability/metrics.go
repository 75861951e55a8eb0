package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StableMetrics records engine operation activity for the peg-token module.
type StableMetrics struct {
	operations   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	liquidations prometheus.Counter
}

var (
	stableMetricsOnce sync.Once
	stableRegistry    *StableMetrics
)

// Stable returns the lazily-initialised metrics registry used to record
// collateral engine activity. Registration against the default prometheus
// registerer happens exactly once.
func Stable() *StableMetrics {
	stableMetricsOnce.Do(func() {
		stableRegistry = &StableMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nusd",
				Subsystem: "stable",
				Name:      "operations_total",
				Help:      "Total engine operations segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "nusd",
				Subsystem: "stable",
				Name:      "operation_seconds",
				Help:      "Engine operation latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "nusd",
				Subsystem: "stable",
				Name:      "liquidations_total",
				Help:      "Total successful liquidations.",
			}),
		}
		prometheus.MustRegister(
			stableRegistry.operations,
			stableRegistry.latency,
			stableRegistry.liquidations,
		)
	})
	return stableRegistry
}

// RecordOperation tracks a completed engine operation and its outcome.
func (m *StableMetrics) RecordOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RecordLiquidation tracks a successful liquidation.
func (m *StableMetrics) RecordLiquidation() {
	if m == nil {
		return
	}
	m.liquidations.Inc()
}
