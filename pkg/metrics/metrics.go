package metrics

import (
	"runtime"
	"time"
)

// RecordBuild records a graph construction attempt with its duration
func (r *Registry) RecordBuild(mode, status string, duration time.Duration) {
	r.BuildsTotal.WithLabelValues(mode, status).Inc()
	r.BuildDuration.Observe(duration.Seconds())
}

// ObserveGraph updates the size gauges after a successful resolution
func (r *Registry) ObserveGraph(nodes, edges int) {
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
}

// AddRejectedEdges counts dependencies excised by non-strict resolution
func (r *Registry) AddRejectedEdges(n int) {
	r.RejectedEdgesTotal.Add(float64(n))
}

// RecordSchedule records one plan computation
func (r *Registry) RecordSchedule(duration time.Duration) {
	r.SchedulesComputedTotal.Inc()
	r.ScheduleDuration.Observe(duration.Seconds())
}

// RecordJournalAppend counts a plan written to the journal
func (r *Registry) RecordJournalAppend() {
	r.PlansJournaledTotal.Inc()
}

// RecordExport counts a plan export attempt by outcome
func (r *Registry) RecordExport(status string) {
	r.PlansExportedTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateSystemMetrics refreshes the runtime gauges
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}
