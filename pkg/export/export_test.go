package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

func samplePayload() Payload {
	return Payload{
		GraphID:   "graph-1",
		PlanID:    "plan-1",
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Nodes:     2,
		Edges:     1,
		Order:     []string{"database", "api"},
		Rejected:  []depgraph.Dependency{{Dependent: "api", Requirement: "api"}},
		Entries: []schedule.Entry{
			{
				Component: "database",
				Startup:   schedule.Window{Begin: 0, End: 30 * time.Second},
				Shutdown:  schedule.Window{Begin: -10 * time.Second, End: 0},
			},
		},
	}
}

// TestDirExporter tests the local directory round trip
func TestDirExporter(t *testing.T) {
	dir := t.TempDir()
	exp := NewDirExporter(dir)

	want := samplePayload()
	if err := exp.Export(context.Background(), want); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	path := filepath.Join(dir, "graph-1", "plan-1.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read exported file: %v", err)
	}

	var got Payload
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to decode exported file: %v", err)
	}
	if got.GraphID != want.GraphID || got.PlanID != want.PlanID {
		t.Errorf("Expected %s/%s, got %s/%s", want.GraphID, want.PlanID, got.GraphID, got.PlanID)
	}
	if !reflect.DeepEqual(got.Order, want.Order) {
		t.Errorf("Expected order %v, got %v", want.Order, got.Order)
	}
	if !reflect.DeepEqual(got.Entries, want.Entries) {
		t.Errorf("Expected entries %v, got %v", want.Entries, got.Entries)
	}
}

// TestKey tests object path construction
func TestKey(t *testing.T) {
	p := samplePayload()

	tests := []struct {
		prefix string
		want   string
	}{
		{"", "graph-1/plan-1.json"},
		{"plans", "plans/graph-1/plan-1.json"},
		{"nested/prefix", "nested/prefix/graph-1/plan-1.json"},
	}

	for _, tt := range tests {
		if got := key(tt.prefix, p); got != tt.want {
			t.Errorf("key(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

// TestNewS3Exporter tests client construction
func TestNewS3Exporter(t *testing.T) {
	exp, err := NewS3Exporter(context.Background(), S3Config{
		Region:          "us-east-1",
		Bucket:          "bootseq-plans",
		Prefix:          "plans/",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	if err != nil {
		t.Fatalf("Failed to create S3 exporter: %v", err)
	}
	if exp.bucket != "bootseq-plans" {
		t.Errorf("Expected bucket bootseq-plans, got %s", exp.bucket)
	}
	if exp.prefix != "plans" {
		t.Errorf("Expected trimmed prefix plans, got %s", exp.prefix)
	}

	// A bucket is mandatory.
	if _, err := NewS3Exporter(context.Background(), S3Config{Region: "us-east-1"}); err == nil {
		t.Error("Expected error for missing bucket")
	}
}

// TestPayload_OmitsEmptyRejected tests the wire shape of a clean graph
func TestPayload_OmitsEmptyRejected(t *testing.T) {
	p := samplePayload()
	p.Rejected = nil

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	if strings.Contains(string(data), "rejected") {
		t.Errorf("Expected rejected to be omitted, got %s", data)
	}
}
