package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	QuotePlansRecommended = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quote_plans_recommended",
			Help:    "Number of plans returned per recommendation",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	QuoteNoMatch = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quote_no_match_total",
			Help: "Recommendations that matched no plan",
		},
	)

	SurveySubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_submissions_total",
			Help: "Questionnaire submissions by outcome",
		},
		[]string{"outcome"},
	)

	SessionRoleResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_role_resolutions_total",
			Help: "Role gate decisions by section and reason",
		},
		[]string{"section", "reason"},
	)
)

// JobTimer tracks one job for the worker gauges and histograms.
type JobTimer struct {
	taskType string
	timer    *prometheus.Timer
}

// StartJob marks a job active and starts its duration timer.
func StartJob(taskType string) *JobTimer {
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	return &JobTimer{
		taskType: taskType,
		timer:    prometheus.NewTimer(WorkerJobDuration.WithLabelValues(taskType)),
	}
}

// Completed records a successful job.
func (j *JobTimer) Completed() {
	j.finish()
	WorkerJobsCompleted.WithLabelValues(j.taskType).Inc()
}

// Failed records a failed job under errorCode.
func (j *JobTimer) Failed(errorCode string) {
	j.finish()
	WorkerJobsFailed.WithLabelValues(j.taskType, errorCode).Inc()
}

func (j *JobTimer) finish() {
	j.timer.ObserveDuration()
	WorkerJobsActive.WithLabelValues(j.taskType).Dec()
}
