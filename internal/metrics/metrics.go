package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Signup, login and introspection attempts by outcome",
		},
		[]string{"operation", "result"},
	)

	TweetOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tweet_operations_total",
			Help: "Tweet create, update and delete attempts by outcome",
		},
		[]string{"operation", "result"},
	)

	BroadcastFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_broadcast_failures_total",
			Help: "Broadcast events that could not be emitted",
		},
	)

	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_clients",
			Help: "Number of connected realtime subscribers",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
