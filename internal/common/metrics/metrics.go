// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "scribe_http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"route", "method"},
	)

	JobTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_job_transitions_total",
			Help: "Total number of transcription job status transitions",
		},
		[]string{"status"},
	)

	WebsocketSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scribe_websocket_sessions",
			Help: "Number of open websocket sessions per channel",
		},
		[]string{"channel"},
	)

	SessionStoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_session_store_operations_total",
			Help: "Total number of session store operations",
		},
		[]string{"operation", "outcome"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_notifications_sent_total",
			Help: "Total number of notification emails attempted",
		},
		[]string{"kind", "outcome"},
	)
)
