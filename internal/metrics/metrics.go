// Package metrics provides the centralized Prometheus registry for the
// settlement pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PipelineRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "raceday",
		Name:      "pipeline_runs_total",
		Help:      "Total number of settlement pipeline invocations",
	})
	RacesProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "raceday",
		Name:      "races_processed_total",
		Help:      "Races handled per run, partitioned by fetch outcome",
	}, []string{"outcome"})
	BetsSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "raceday",
		Name:      "bets_settled_total",
		Help:      "Bets transitioned out of pending, partitioned by result",
	}, []string{"result"})
	BankrollCreditsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "raceday",
		Name:      "bankroll_credits_total",
		Help:      "Ledger credit entries written for winning bets",
	})
	PropagationErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "raceday",
		Name:      "propagation_errors_total",
		Help:      "Failed derived-table writes, partitioned by destination",
	}, []string{"table"})
)

// Histogram metrics
var (
	ProviderCallDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "raceday",
		Name:      "provider_call_duration_seconds",
		Help:      "Latency of result provider calls",
		Buckets:   prometheus.DefBuckets,
	})
	PipelineRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "raceday",
		Name:      "pipeline_run_duration_seconds",
		Help:      "Wall time of full pipeline invocations",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
)

// Registry returns the shared metrics registry, registering all collectors
// on first use.
func Registry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			PipelineRunsTotal,
			RacesProcessedTotal,
			BetsSettledTotal,
			BankrollCreditsTotal,
			PropagationErrorsTotal,
			ProviderCallDuration,
			PipelineRunDuration,
		)
	})
	return registry
}

// Handler returns an HTTP handler serving the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}
