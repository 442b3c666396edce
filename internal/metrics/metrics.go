package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcg_chat",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tcg_chat",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tcg_chat",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Latency of remote model calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"path"},
	)

	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcg_chat",
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Remote model calls that failed",
		},
		[]string{"path"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcg_chat",
			Subsystem: "provider",
			Name:      "tokens_total",
			Help:      "Tokens reported by the provider",
		},
		[]string{"kind"},
	)

	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tcg_chat",
			Subsystem: "chat",
			Name:      "conversations_created_total",
			Help:      "Conversations created",
		},
	)

	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcg_chat",
			Subsystem: "worker",
			Name:      "jobs_total",
			Help:      "Async chat jobs processed by outcome",
		},
		[]string{"status"},
	)
)

// RecordRequest records HTTP request count and latency.
func RecordRequest(method, route, status string, seconds float64) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordProviderCall records one remote model call on the given chat path.
func RecordProviderCall(path string, seconds float64, err error) {
	ProviderDuration.WithLabelValues(path).Observe(seconds)
	if err != nil {
		ProviderErrorsTotal.WithLabelValues(path).Inc()
	}
}

func RecordTokens(prompt, completion int) {
	if prompt > 0 {
		TokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	}
	if completion > 0 {
		TokensTotal.WithLabelValues("completion").Add(float64(completion))
	}
}
