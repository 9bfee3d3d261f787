package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	chainReadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lending_chain_read_duration_seconds",
			Help:    "Duration of on-chain read calls by method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "outcome"},
	)

	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lending_operations_total",
			Help: "Protocol operations executed, by operation and terminal outcome.",
		},
		[]string{"operation", "outcome"},
	)

	refreshesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lending_position_refreshes_total",
			Help: "Portfolio refresh cycles executed.",
		},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once from main.
func MustRegisterMetrics() {
	prometheus.MustRegister(chainReadDuration, operationsTotal, refreshesTotal)
}

// ObserveChainRead records the duration and outcome of one chain read.
func ObserveChainRead(method string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	chainReadDuration.WithLabelValues(method, outcome).Observe(d.Seconds())
}

// CountOperation records a terminal operation outcome.
func CountOperation(operation string, outcome string) {
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// CountRefresh records one portfolio refresh cycle.
func CountRefresh() {
	refreshesTotal.Inc()
}
