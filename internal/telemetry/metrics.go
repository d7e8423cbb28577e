// Package telemetry exposes the Prometheus metrics and OpenTelemetry spans
// emitted around authentication, unary, and streaming calls. It does not
// configure a registry HTTP handler or a trace exporter: wiring those is left
// to the hosting application, which already has its own metrics endpoint and
// collector pipeline.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_upstream_requests_total",
			Help: "Total number of unary upstream requests",
		},
		[]string{"strategy", "endpoint", "status_class"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genai_upstream_request_duration_seconds",
			Help:    "Unary upstream request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy", "endpoint"},
	)

	UpstreamRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_upstream_retry_attempts_total",
			Help: "Total number of unary upstream retry attempts",
		},
		[]string{"strategy", "outcome"},
	)

	ModelFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_model_fallbacks_total",
			Help: "Total number of model name fallback substitutions after a 404",
		},
		[]string{"from_model", "to_model"},
	)

	CredentialCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_credential_cache_hits_total",
			Help: "Total number of credential resolutions served from cache",
		},
		[]string{"strategy"},
	)

	CredentialRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_credential_refreshes_total",
			Help: "Total number of credential authentications performed",
		},
		[]string{"strategy", "status"},
	)

	StreamSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "genai_stream_sessions_active",
			Help: "Number of currently active streaming sessions",
		},
	)

	StreamReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_stream_reconnects_total",
			Help: "Total number of streaming session reconnect attempts",
		},
		[]string{"outcome"},
	)

	StreamSubscriberOverflowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "genai_stream_subscriber_overflows_total",
			Help: "Total number of times a subscriber mailbox dropped an event",
		},
	)
)

// StatusClass buckets an HTTP status into the coarse label used by the
// request-count metrics ("2xx", "4xx", "5xx", "error").
func StatusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "other"
	}
}
