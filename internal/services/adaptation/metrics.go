package adaptation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitcoach_scheduler_job_runs_total",
		Help: "Number of scheduler job runs by job name and status.",
	}, []string{"job", "status"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fitcoach_scheduler_job_duration_seconds",
		Help:    "Duration of scheduler job runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	calorieAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitcoach_calorie_adjustments_total",
		Help: "Number of calorie target adjustments by trend classification.",
	}, []string{"classification"})

	subscriptionsExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitcoach_subscriptions_expired_total",
		Help: "Number of subscriptions moved to expired by the sweep, by previous status.",
	}, []string{"from"})
)
