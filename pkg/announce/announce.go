// Package announce publishes plan lifecycle events to operational
// subscribers. The message transport is selected at build time: compile
// with -tags nng for a mangos PUB socket or -tags zmq for a ZeroMQ PUB
// socket. Without either tag, NewPublisher reports the transport as
// unavailable and callers fall back to NopPublisher.
package announce

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
)

// Event types.
const (
	EventGraphBuilt   = "graph.built"
	EventPlanCreated  = "plan.created"
	EventGraphDeleted = "graph.deleted"
)

var ErrTransportUnavailable = errors.New("announce: no message transport compiled in")

// Event describes one change to the set of built graphs.
type Event struct {
	Type          string                `json:"type"`
	GraphID       string                `json:"graph_id"`
	PlanID        string                `json:"plan_id,omitempty"`
	Nodes         int                   `json:"nodes"`
	Edges         int                   `json:"edges"`
	RejectedEdges []depgraph.Dependency `json:"rejected_edges,omitempty"`
	At            time.Time             `json:"at"`
}

// Encode renders the event as JSON for the wire.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher pushes events to subscribers.
type Publisher interface {
	Publish(Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) error { return nil }
func (NopPublisher) Close() error        { return nil }
