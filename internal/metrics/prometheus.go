package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total reconciled submissions by outcome action",
		},
		[]string{"action"},
	)

	SubmissionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submission_failures_total",
			Help: "Submissions aborted by resolution stage",
		},
		[]string{"stage"},
	)

	RelaysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_attempts_total",
			Help: "Webhook relay attempts by result",
		},
		[]string{"result"},
	)

	RelayWorkerActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_worker_active_goroutines",
			Help: "Number of active relay worker goroutines",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "intake_events_queue_depth",
			Help: "Current depth of the intake events queue",
		},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(SubmissionFailures)
	prometheus.MustRegister(RelaysTotal)
	prometheus.MustRegister(RelayWorkerActive)
	prometheus.MustRegister(QueueDepth)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
