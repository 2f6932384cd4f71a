package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initBuildMetrics() {
	r.BuildsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootseq_builds_total",
			Help: "Total number of graph constructions by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	r.BuildDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bootseq_build_duration_seconds",
			Help:    "Graph construction and resolution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bootseq_graph_nodes",
			Help: "Components in the most recently resolved graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bootseq_graph_edges",
			Help: "Surviving dependencies in the most recently resolved graph",
		},
	)

	r.RejectedEdgesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bootseq_rejected_edges_total",
			Help: "Dependencies excised by non-strict cycle resolution",
		},
	)
}
