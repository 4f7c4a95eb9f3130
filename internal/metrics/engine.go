package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval engine Prometheus metrics.
var (
	UnitsParsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "specdex",
			Name:      "units_parsed_total",
			Help:      "Total units produced by the structural parser",
		},
		[]string{"kind"},
	)

	ParseErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "specdex",
			Name:      "parse_errors_total",
			Help:      "Total recoverable parse errors during ingestion",
		},
	)

	SnapshotsBuiltTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "specdex",
			Name:      "snapshots_built_total",
			Help:      "Total snapshots indexed and published",
		},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "specdex",
			Name:      "queries_total",
			Help:      "Total query resolutions by outcome",
		},
		[]string{"outcome"}, // "answered" / "refused" / "error"
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "specdex",
			Name:      "query_duration_seconds",
			Help:      "Query resolution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// Query outcome label values.
const (
	OutcomeAnswered = "answered"
	OutcomeRefused  = "refused"
	OutcomeError    = "error"
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers retrieval engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(UnitsParsedTotal)
	prometheus.MustRegister(ParseErrorsTotal)
	prometheus.MustRegister(SnapshotsBuiltTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	engineMetricsRegistered = true
}
