package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	providerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoquery_provider_requests_total",
			Help: "Total number of LLM provider calls by outcome.",
		},
		[]string{"provider", "outcome"},
	)

	providerCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geoquery_provider_call_duration_seconds",
			Help:    "LLM provider call latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	providerRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoquery_provider_retries_total",
			Help: "Total number of retried LLM provider attempts.",
		},
		[]string{"provider"},
	)

	parseResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoquery_parse_results_total",
			Help: "Parsed LLM responses by extraction stage.",
		},
		[]string{"stage"},
	)

	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoquery_query_executions_total",
			Help: "Total number of SQL executions by data source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geoquery_query_duration_seconds",
			Help:    "SQL execution latency by data source.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	schemaRefreshesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geoquery_schema_refreshes_total",
			Help: "Total number of schema cache refreshes.",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoquery_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geoquery_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		providerRequestsTotal,
		providerCallDurationSeconds,
		providerRetriesTotal,
		parseResultsTotal,
		queryExecutionsTotal,
		queryDurationSeconds,
		schemaRefreshesTotal,
		httpRequestsTotal,
		httpRequestDurationSeconds,
	)
}

func ObserveProviderCall(provider, outcome string, elapsed time.Duration) {
	providerRequestsTotal.WithLabelValues(provider, outcome).Inc()
	providerCallDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func IncrementProviderRetry(provider string) {
	providerRetriesTotal.WithLabelValues(provider).Inc()
}

func ObserveParseResult(stage string) {
	parseResultsTotal.WithLabelValues(stage).Inc()
}

func ObserveQueryExecution(source, outcome string, elapsed time.Duration) {
	queryExecutionsTotal.WithLabelValues(source, outcome).Inc()
	queryDurationSeconds.WithLabelValues(source).Observe(elapsed.Seconds())
}

func IncrementSchemaRefresh() {
	schemaRefreshesTotal.Inc()
}

func ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}
