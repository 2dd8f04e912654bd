// Package metrics holds the prometheus collectors of the batch jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobRuns counts job invocations by job and final status.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyroom_job_runs_total",
		Help: "Total batch job runs by job and status",
	}, []string{"job", "status"})

	// JobDuration tracks how long a batch job takes end to end.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studyroom_job_duration_seconds",
		Help:    "Batch job duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
	}, []string{"job"})

	EventsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyroom_sync_events_inserted_total",
		Help: "Canonical attendance events inserted from the access-control system",
	})

	// RecordsSkipped counts external records dropped by reason.
	RecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyroom_sync_records_skipped_total",
		Help: "External access records skipped by reason",
	}, []string{"reason"})

	WeeklyOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyroom_weekly_outcomes_total",
		Help: "Weekly goal outcomes recorded by result",
	}, []string{"result"})
)

const (
	JobSync   = "sync_access"
	JobWeekly = "weekly_goals"
)
