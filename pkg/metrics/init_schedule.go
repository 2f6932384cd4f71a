package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initScheduleMetrics() {
	r.SchedulesComputedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bootseq_schedules_computed_total",
			Help: "Total number of timing plans computed",
		},
	)

	r.ScheduleDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bootseq_schedule_duration_seconds",
			Help:    "Plan computation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.PlansJournaledTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bootseq_plans_journaled_total",
			Help: "Plans appended to the journal",
		},
	)

	r.PlansExportedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootseq_plans_exported_total",
			Help: "Plans exported to object storage by outcome",
		},
		[]string{"status"},
	)
}
