package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	JobsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simsaas_jobs_submitted_total",
			Help: "Total number of job submissions by outcome.",
		},
		[]string{"outcome"},
	)

	JobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simsaas_job_runs_total",
			Help: "Total number of job executions by status.",
		},
		[]string{"status"},
	)

	JobRunDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simsaas_job_run_duration_seconds",
			Help:    "Duration of job executions in seconds.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)

	JobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "simsaas_jobs_active",
			Help: "Number of jobs currently executing in this process.",
		},
	)

	SubmissionCompensationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "simsaas_submission_compensation_failures_total",
			Help: "Jobs left PENDING because marking a failed enqueue as FAILED also failed.",
		},
	)

	QueuePrunedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simsaas_queue_pruned_total",
			Help: "Total number of queue entries removed by housekeeping by state.",
		},
		[]string{"state"},
	)
)

const (
	OutcomeQueued     = "queued"
	OutcomeNotFound   = "not_found"
	OutcomeEnqueueErr = "enqueue_failed"
	OutcomeStoreErr   = "store_failed"
)

// Collectors returns every custom simsaas collector.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		JobsSubmittedTotal,
		JobRunsTotal,
		JobRunDurationSeconds,
		JobsActive,
		SubmissionCompensationFailuresTotal,
		QueuePrunedTotal,
	}
}

// Register registers all custom simsaas metrics with the default Prometheus registry.
func Register() {
	prometheus.MustRegister(Collectors()...)
}
