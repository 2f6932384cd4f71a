// Package schedule turns a resolved dependency graph into concrete startup
// and shutdown windows. Each component's startup begins when the last of the
// components depending on it has finished starting; each component's shutdown
// ends when the first of its requirements begins shutting down. Shutdown
// windows are expressed as negative offsets from the shutdown deadline at
// zero.
package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Window is a half-open [Begin, End) interval on the plan timeline.
type Window struct {
	Begin time.Duration `json:"begin"`
	End   time.Duration `json:"end"`
}

// Span returns the width of the window.
func (w Window) Span() time.Duration {
	return w.End - w.Begin
}

// Entry holds both computed windows for one component.
type Entry struct {
	Component string `json:"component"`
	Startup   Window `json:"startup"`
	Shutdown  Window `json:"shutdown"`
}

// Plan is the timing schedule for one resolution of a graph. Entries follow
// the graph's topological order. GraphEpoch records which resolution the
// plan was computed against so callers can detect staleness after the graph
// mutates.
type Plan struct {
	ID         string    `json:"id"`
	GraphEpoch uint64    `json:"graphEpoch"`
	CreatedAt  time.Time `json:"createdAt"`
	Entries    []Entry   `json:"entries"`

	byName map[string]int
}

func newPlan(components []string, epoch uint64) *Plan {
	p := &Plan{
		ID:         uuid.New().String(),
		GraphEpoch: epoch,
		CreatedAt:  time.Now().UTC(),
		Entries:    make([]Entry, len(components)),
		byName:     make(map[string]int, len(components)),
	}
	for i, name := range components {
		p.Entries[i] = Entry{Component: name}
		p.byName[name] = i
	}
	return p
}

// Entry returns the entry for the named component.
func (p *Plan) Entry(name string) (Entry, bool) {
	i, ok := p.byName[name]
	if !ok {
		return Entry{}, false
	}
	return p.Entries[i], true
}

// Len returns the number of scheduled components.
func (p *Plan) Len() int {
	return len(p.Entries)
}

// Components returns the component names in plan order.
func (p *Plan) Components() []string {
	out := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Component
	}
	return out
}

// Stale reports whether the graph has been re-resolved since this plan was
// computed.
func (p *Plan) Stale(epoch uint64) bool {
	return p.GraphEpoch != epoch
}

// TotalStartup returns the instant the last component finishes starting.
func (p *Plan) TotalStartup() time.Duration {
	var max time.Duration
	for _, e := range p.Entries {
		if e.Startup.End > max {
			max = e.Startup.End
		}
	}
	return max
}

// TotalShutdown returns the earliest shutdown begin, a negative offset from
// the deadline at zero.
func (p *Plan) TotalShutdown() time.Duration {
	var min time.Duration
	for _, e := range p.Entries {
		if e.Shutdown.Begin < min {
			min = e.Shutdown.Begin
		}
	}
	return min
}

// ByStartupBegin returns the entries sorted by startup begin, ties broken by
// component name. The plan itself is not reordered.
func (p *Plan) ByStartupBegin() []Entry {
	out := make([]Entry, len(p.Entries))
	copy(out, p.Entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Startup.Begin != out[j].Startup.Begin {
			return out[i].Startup.Begin < out[j].Startup.Begin
		}
		return out[i].Component < out[j].Component
	})
	return out
}

// ByShutdownBegin returns the entries sorted by shutdown begin, ties broken
// by component name.
func (p *Plan) ByShutdownBegin() []Entry {
	out := make([]Entry, len(p.Entries))
	copy(out, p.Entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Shutdown.Begin != out[j].Shutdown.Begin {
			return out[i].Shutdown.Begin < out[j].Shutdown.Begin
		}
		return out[i].Component < out[j].Component
	})
	return out
}
