package announce

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
)

// TestEvent_Encode tests the wire encoding of an event
func TestEvent_Encode(t *testing.T) {
	ev := Event{
		Type:    EventPlanCreated,
		GraphID: "graph-1",
		PlanID:  "plan-1",
		Nodes:   6,
		Edges:   6,
		RejectedEdges: []depgraph.Dependency{
			{Dependent: "x", Requirement: "z"},
		},
		At: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}

	data, err := ev.Encode()
	if err != nil {
		t.Fatalf("Failed to encode event: %v", err)
	}

	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	if got.Type != EventPlanCreated {
		t.Errorf("Expected type %s, got %s", EventPlanCreated, got.Type)
	}
	if got.GraphID != "graph-1" || got.PlanID != "plan-1" {
		t.Errorf("Expected graph-1/plan-1, got %s/%s", got.GraphID, got.PlanID)
	}
	if got.Nodes != 6 || got.Edges != 6 {
		t.Errorf("Expected 6 nodes and 6 edges, got %d/%d", got.Nodes, got.Edges)
	}
	if len(got.RejectedEdges) != 1 || got.RejectedEdges[0].Dependent != "x" {
		t.Errorf("Expected rejected edge (x, z), got %v", got.RejectedEdges)
	}
	if !got.At.Equal(ev.At) {
		t.Errorf("Expected timestamp %v, got %v", ev.At, got.At)
	}
}

// TestEvent_EncodeOmitsEmpty tests that optional fields are omitted
func TestEvent_EncodeOmitsEmpty(t *testing.T) {
	ev := Event{
		Type:    EventGraphDeleted,
		GraphID: "graph-1",
		At:      time.Now().UTC(),
	}

	data, err := ev.Encode()
	if err != nil {
		t.Fatalf("Failed to encode event: %v", err)
	}

	s := string(data)
	if strings.Contains(s, "plan_id") {
		t.Errorf("Expected plan_id to be omitted, got %s", s)
	}
	if strings.Contains(s, "rejected_edges") {
		t.Errorf("Expected rejected_edges to be omitted, got %s", s)
	}
}

// TestNopPublisher tests the no-op publisher
func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}

	if err := p.Publish(Event{Type: EventGraphBuilt}); err != nil {
		t.Errorf("Unexpected publish error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Unexpected close error: %v", err)
	}
}
