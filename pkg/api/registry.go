package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

// BuiltGraph is one resolved graph plus its computed plan, held in the
// server's registry under a generated ID.
type BuiltGraph struct {
	ID        string
	Graph     *depgraph.Graph
	Plan      *schedule.Plan
	CreatedAt time.Time
}

// Registry holds the graphs built over the server's lifetime. The lock
// guards the maps only; the graphs themselves are never mutated after
// registration, so readers share them freely.
type Registry struct {
	mu     sync.RWMutex
	graphs map[string]*BuiltGraph
	order  []string // registration order, for stable listings
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{graphs: make(map[string]*BuiltGraph)}
}

// Add registers a built graph and returns its generated ID.
func (r *Registry) Add(g *depgraph.Graph, plan *schedule.Plan) *BuiltGraph {
	bg := &BuiltGraph{
		ID:        uuid.New().String(),
		Graph:     g,
		Plan:      plan,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.graphs[bg.ID] = bg
	r.order = append(r.order, bg.ID)
	r.mu.Unlock()
	return bg
}

// Get returns the graph stored under id.
func (r *Registry) Get(id string) (*BuiltGraph, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bg, ok := r.graphs[id]
	return bg, ok
}

// Remove deletes the graph stored under id.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.graphs[id]; !ok {
		return false
	}
	delete(r.graphs, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns every stored graph in registration order.
func (r *Registry) List() []*BuiltGraph {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*BuiltGraph, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.graphs[id])
	}
	return out
}

// Len returns the number of stored graphs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.graphs)
}

// Lookup implements graphql.Source.
func (r *Registry) Lookup(id string) (*depgraph.Graph, *schedule.Plan, bool) {
	bg, ok := r.Get(id)
	if !ok {
		return nil, nil, false
	}
	return bg.Graph, bg.Plan, true
}

// IDs implements graphql.Source.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
