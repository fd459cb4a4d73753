// Package metrics defines the Prometheus metrics exported by the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Webhook metrics.
	UpdatesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checklist_updates_received_total",
			Help: "Total number of webhook updates accepted into the runtime queue",
		},
	)

	UpdatesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_updates_rejected_total",
			Help: "Total number of webhook updates rejected by reason",
		},
		[]string{"reason"},
	)

	WebhookDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checklist_webhook_duration_seconds",
			Help:    "Webhook request handling duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Runtime metrics.
	HandlerPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checklist_handler_panics_total",
			Help: "Total number of recovered panics in update handling",
		},
	)

	// Checklist metrics.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "checklist_sessions_active",
			Help: "Number of live checklist sessions",
		},
	)

	RunsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checklist_runs_started_total",
			Help: "Total number of checklist runs started",
		},
	)

	ReportsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_reports_delivered_total",
			Help: "Total number of reports delivered by recipient",
		},
		[]string{"recipient"},
	)

	ReportFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_report_failures_total",
			Help: "Total number of report delivery failures by recipient",
		},
		[]string{"recipient"},
	)
)

func init() {
	prometheus.MustRegister(UpdatesReceived)
	prometheus.MustRegister(UpdatesRejected)
	prometheus.MustRegister(WebhookDuration)
	prometheus.MustRegister(HandlerPanics)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(RunsStarted)
	prometheus.MustRegister(ReportsDelivered)
	prometheus.MustRegister(ReportFailures)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
