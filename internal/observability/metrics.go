package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

var (
	registerOnce sync.Once

	sessionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fishbowl",
			Subsystem: "session",
			Name:      "requests_total",
			Help:      "Total requests sent over a session.",
		},
		[]string{"request", "outcome"},
	)
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fishbowl",
			Subsystem: "session",
			Name:      "request_duration_seconds",
			Help:      "Request round trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"request"},
	)
	statusErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fishbowl",
			Subsystem: "session",
			Name:      "status_errors_total",
			Help:      "Responses whose status code did not match the expected one.",
		},
		[]string{"request", "code"},
	)
	connectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fishbowl",
			Subsystem: "transport",
			Name:      "connect_attempts_total",
			Help:      "TCP connect attempts.",
		},
		[]string{"outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(sessionRequests, sessionDuration, statusErrors, connectAttempts)
	})
}

func RecordRequest(request, outcome string, duration time.Duration) {
	RegisterMetrics()
	sessionRequests.WithLabelValues(request, outcome).Inc()
	sessionDuration.WithLabelValues(request).Observe(duration.Seconds())
}

// RecordStatusError counts a response rejected by its status code. The
// exchange itself was already counted by RecordRequest.
func RecordStatusError(request, code string) {
	RegisterMetrics()
	if code == "" {
		code = "none"
	}
	statusErrors.WithLabelValues(request, code).Inc()
}

func RecordConnectAttempt(success bool) {
	RegisterMetrics()
	outcome := OutcomeOK
	if !success {
		outcome = OutcomeError
	}
	connectAttempts.WithLabelValues(outcome).Inc()
}
