package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding regeneration metrics.
var (
	RegenItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regen_items_total",
			Help:      "Items processed by embedding regeneration runs",
		},
		[]string{"status"}, // "ok" / "error"
	)

	RegenRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regen_runs_total",
			Help:      "Embedding regeneration runs by outcome",
		},
		[]string{"outcome"}, // "completed" / "empty" / "failed"
	)

	RegenRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "regen_run_duration_seconds",
			Help:      "Wall time of a full regeneration run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
)

// Search metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Semantic search requests by outcome",
		},
		[]string{"outcome"}, // "ok" / "no_scope" / "error"
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results_returned",
			Help:      "Number of items returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)

var useCaseMetricsRegistered bool

// RegisterUseCaseMetrics registers regeneration and search metrics. Must be called once from main.
func RegisterUseCaseMetrics() {
	if useCaseMetricsRegistered {
		return
	}
	prometheus.MustRegister(RegenItemsTotal)
	prometheus.MustRegister(RegenRunsTotal)
	prometheus.MustRegister(RegenRunDuration)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchResultsReturned)
	useCaseMetricsRegistered = true
}
