package metrics

import (
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.BuildsTotal == nil {
		t.Error("BuildsTotal not initialized")
	}
	if r.BuildDuration == nil {
		t.Error("BuildDuration not initialized")
	}
	if r.SchedulesComputedTotal == nil {
		t.Error("SchedulesComputedTotal not initialized")
	}
	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordBuild(t *testing.T) {
	r := NewRegistry()

	r.RecordBuild("strict", "ok", 10*time.Millisecond)
	r.RecordBuild("strict", "ok", 20*time.Millisecond)
	r.RecordBuild("strict", "cycle", 5*time.Millisecond)

	counter, err := r.BuildsTotal.GetMetricWithLabelValues("strict", "ok")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}

	counter, err = r.BuildsTotal.GetMetricWithLabelValues("strict", "cycle")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Counter value = %v, want 1", metric.Counter.GetValue())
	}
}

func TestObserveGraph(t *testing.T) {
	r := NewRegistry()

	r.ObserveGraph(6, 9)

	var metric dto.Metric
	if err := r.GraphNodes.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 6 {
		t.Errorf("GraphNodes = %v, want 6", metric.Gauge.GetValue())
	}
	if err := r.GraphEdges.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 9 {
		t.Errorf("GraphEdges = %v, want 9", metric.Gauge.GetValue())
	}
}

func TestAddRejectedEdges(t *testing.T) {
	r := NewRegistry()

	r.AddRejectedEdges(3)
	r.AddRejectedEdges(1)

	var metric dto.Metric
	if err := r.RejectedEdgesTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 4 {
		t.Errorf("RejectedEdgesTotal = %v, want 4", metric.Counter.GetValue())
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/api/v1/graphs", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/api/v1/graphs", "201", 200*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/v1/graphs", "404", 50*time.Millisecond)

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/api/v1/graphs", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Counter value = %v, want 1", metric.Counter.GetValue())
	}
}

func TestRecordExport(t *testing.T) {
	r := NewRegistry()

	r.RecordExport("ok")
	r.RecordExport("ok")
	r.RecordExport("error")

	counter, err := r.PlansExportedTotal.GetMetricWithLabelValues("ok")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}
}

func TestGather_AllMetricsNamespaced(t *testing.T) {
	r := NewRegistry()

	// Touch a few metrics so they show up in the gather
	r.RecordBuild("non-strict", "ok", time.Millisecond)
	r.RecordSchedule(time.Millisecond)
	r.RecordJournalAppend()
	r.UpdateSystemMetrics(time.Now().Add(-time.Minute))

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("no metric families gathered")
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "bootseq_") {
			t.Errorf("metric %q missing bootseq_ prefix", mf.GetName())
		}
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	if r.Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}
