package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Input metrics
	PostsRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksent_posts_read_total",
			Help: "Total number of social posts decoded from the input file",
		},
	)

	PostsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksent_posts_dropped_total",
			Help: "Total number of posts dropped before scoring",
		},
		[]string{"reason"}, // reason: unknown_owner
	)

	// Engine metrics
	RequestsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksent_requests_skipped_total",
			Help: "Total number of requests skipped by the sentiment engine",
		},
		[]string{"reason"}, // reason: no_relevant_symbols|oracle_error
	)

	RequestsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksent_requests_completed_total",
			Help: "Total number of requests that produced a sentiment response",
		},
	)

	// Oracle metrics
	OracleCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksent_oracle_calls_total",
			Help: "Total number of scoring oracle invocations",
		},
		[]string{"provider", "status"}, // status: success|error
	)

	OracleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stocksent_oracle_latency_seconds",
			Help:    "Scoring oracle call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	ParseFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksent_response_parse_failures_total",
			Help: "Total number of oracle responses that failed JSON parsing",
		},
	)

	// Output metrics
	RowsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksent_rows_written_total",
			Help: "Total number of (post, symbol) rows written to the output file",
		},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(PostsRead)
	prometheus.MustRegister(PostsDropped)
	prometheus.MustRegister(RequestsSkipped)
	prometheus.MustRegister(RequestsCompleted)
	prometheus.MustRegister(OracleCalls)
	prometheus.MustRegister(OracleLatency)
	prometheus.MustRegister(ParseFailures)
	prometheus.MustRegister(RowsWritten)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordOracleCall records one oracle invocation
func RecordOracleCall(provider string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	OracleCalls.WithLabelValues(provider, status).Inc()
	OracleLatency.WithLabelValues(provider).Observe(latency.Seconds())
}
