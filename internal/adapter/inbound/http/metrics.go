package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sentinel-Gate/awaymail/internal/domain/gate"
)

// Metrics holds all Prometheus metrics for awaymail.
// It records gate decisions as a gate.Recorder and HTTP traffic through
// MetricsMiddleware.
type Metrics struct {
	DecisionsTotal     *prometheus.CounterVec
	MailFailures       prometheus.Counter
	RouteFailures      prometheus.Counter
	EvaluationDuration prometheus.Histogram
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "awaymail",
				Name:      "decisions_total",
				Help:      "Total gate decisions",
			},
			[]string{"action", "reason"}, // action=forward/passthrough
		),
		MailFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "awaymail",
				Name:      "mail_failures_total",
				Help:      "Total forwarding mails the mailer failed to send",
			},
		),
		RouteFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "awaymail",
				Name:      "route_failures_total",
				Help:      "Total away confirmations that could not be routed",
			},
		),
		EvaluationDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "awaymail",
				Name:      "evaluation_duration_seconds",
				Help:      "Time spent evaluating one message, including mail and routing",
				Buckets:   prometheus.DefBuckets,
			},
		),
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "awaymail",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests handled",
			},
			[]string{"route", "code"}, // code=2xx/4xx/5xx
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "awaymail",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// RecordDecision implements gate.Recorder.
func (m *Metrics) RecordDecision(d gate.Decision, elapsed time.Duration) {
	m.DecisionsTotal.WithLabelValues(d.Action.String(), string(d.Reason)).Inc()
	m.EvaluationDuration.Observe(elapsed.Seconds())

	switch d.Reason {
	case gate.ReasonMailFailed:
		m.MailFailures.Inc()
	case gate.ReasonRouteFailed:
		m.RouteFailures.Inc()
	}
}

var _ gate.Recorder = (*Metrics)(nil)
