// internal/common/metrics/metrics.go
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
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
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

	// kind is one of new_appointment, new_patient, new_home_clinic_request.
	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Push notifications accepted by the push service",
		},
		[]string{"kind"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Push notifications the push service rejected",
		},
		[]string{"kind"},
	)

	NotificationsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_suppressed_total",
			Help: "Creation events that intentionally produced no notification",
		},
		[]string{"kind"},
	)

	// outcome is sent, skipped or failed.
	RemindersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_processed_total",
			Help: "Reminder candidates handled by the daily sweep",
		},
		[]string{"outcome"},
	)

	RemindersFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "Reminder dispatches that failed and will not be retried",
		},
	)

	ReminderSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_sweep_duration_seconds",
			Help:    "Duration of a full reminder sweep",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	ChangeFeedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_feed_messages_total",
			Help: "Change-feed deliveries by routing key and result",
		},
		[]string{"routing_key", "result"},
	)
)
