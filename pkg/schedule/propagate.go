package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/logging"
)

var (
	// ErrMissingDuration means a component has no usable duration attribute
	// for the pass being computed.
	ErrMissingDuration = errors.New("missing duration attribute")

	// ErrStalePlan means the plan was created against an older resolution of
	// the graph.
	ErrStalePlan = errors.New("plan is stale")
)

// Config carries optional propagator settings.
type Config struct {
	// Logger receives diagnostics. Nil means no output.
	Logger logging.Logger
}

// Propagator computes startup and shutdown windows over a resolved graph.
type Propagator struct {
	g   *depgraph.Graph
	log logging.Logger
}

// NewPropagator returns a propagator with default settings.
func NewPropagator(g *depgraph.Graph) *Propagator {
	return NewPropagatorWithConfig(g, Config{})
}

// NewPropagatorWithConfig returns a propagator using the given settings.
func NewPropagatorWithConfig(g *depgraph.Graph, cfg Config) *Propagator {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Propagator{g: g, log: log}
}

// NewPlan allocates an empty plan for the graph's current resolution. Both
// windows of every entry start zeroed until a pass fills them in.
func (p *Propagator) NewPlan() *Plan {
	return newPlan(p.g.TopologicalOrder(), p.g.Epoch())
}

// Compute builds a fresh plan and runs both passes over it.
func (p *Propagator) Compute() (*Plan, error) {
	plan := p.NewPlan()
	if err := p.ComputeStartup(plan); err != nil {
		return nil, err
	}
	if err := p.ComputeShutdown(plan); err != nil {
		return nil, err
	}
	p.log.Debug("plan computed",
		logging.PlanID(plan.ID),
		logging.Count(plan.Len()),
		logging.Duration("totalStartup", plan.TotalStartup()),
		logging.Duration("totalShutdown", plan.TotalShutdown()))
	return plan, nil
}

// passSpec describes one direction of propagation. The startup pass walks
// the order front to back anchoring each window on the components that
// depend on it; the shutdown pass walks back to front anchoring on the
// component's own requirements.
type passSpec struct {
	attr    string
	reverse bool
	// refs picks the neighbors whose already-computed windows anchor this
	// component's window.
	refs func(depgraph.ComponentView) []string
	// anchor picks the relevant edge of a neighbor's window.
	anchor func(Entry) time.Duration
	// fold combines anchors: max for startup, min for shutdown.
	fold func(a, b time.Duration) time.Duration
	// window builds the component's window from the folded reference and
	// its own duration.
	window func(ref, dur time.Duration) Window
	// set writes the computed window into the entry.
	set func(*Entry, Window)
}

var startupPass = passSpec{
	attr:    depgraph.AttrStartup,
	reverse: false,
	refs:    func(cv depgraph.ComponentView) []string { return cv.Dependents },
	anchor:  func(e Entry) time.Duration { return e.Startup.End },
	fold: func(a, b time.Duration) time.Duration {
		if b > a {
			return b
		}
		return a
	},
	window: func(ref, dur time.Duration) Window { return Window{Begin: ref, End: ref + dur} },
	set:    func(e *Entry, w Window) { e.Startup = w },
}

var shutdownPass = passSpec{
	attr:    depgraph.AttrShutdown,
	reverse: true,
	refs:    func(cv depgraph.ComponentView) []string { return cv.Requirements },
	anchor:  func(e Entry) time.Duration { return e.Shutdown.Begin },
	fold: func(a, b time.Duration) time.Duration {
		if b < a {
			return b
		}
		return a
	},
	window: func(ref, dur time.Duration) Window { return Window{Begin: ref - dur, End: ref} },
	set:    func(e *Entry, w Window) { e.Shutdown = w },
}

// ComputeStartup fills the startup windows of plan. The shutdown windows are
// left untouched, so either pass may run without the other.
func (p *Propagator) ComputeStartup(plan *Plan) error {
	return p.runPass(plan, startupPass)
}

// ComputeShutdown fills the shutdown windows of plan.
func (p *Propagator) ComputeShutdown(plan *Plan) error {
	return p.runPass(plan, shutdownPass)
}

func (p *Propagator) runPass(plan *Plan, spec passSpec) error {
	if plan.Stale(p.g.Epoch()) {
		return fmt.Errorf("schedule: graph re-resolved since plan %s was created: %w",
			plan.ID, ErrStalePlan)
	}

	n := len(plan.Entries)
	for i := 0; i < n; i++ {
		idx := i
		if spec.reverse {
			idx = n - 1 - i
		}
		entry := &plan.Entries[idx]

		attrs, ok := p.g.Attrs(entry.Component)
		if !ok {
			return fmt.Errorf("schedule: component %q not in graph: %w",
				entry.Component, ErrStalePlan)
		}
		dur, err := attrs.Duration(spec.attr)
		if err != nil {
			return fmt.Errorf("schedule: component %q attribute %q: %w",
				entry.Component, spec.attr, ErrMissingDuration)
		}

		cv, err := p.g.Component(entry.Component)
		if err != nil {
			return fmt.Errorf("schedule: %w", err)
		}

		// Reference instant: zero when unanchored, otherwise folded over the
		// neighbors computed earlier in this pass.
		var ref time.Duration
		for j, nb := range spec.refs(cv) {
			anchor := spec.anchor(plan.Entries[plan.byName[nb]])
			if j == 0 {
				ref = anchor
				continue
			}
			ref = spec.fold(ref, anchor)
		}

		w := spec.window(ref, dur)
		spec.set(entry, w)
		p.log.Debug("window placed",
			logging.Component(entry.Component),
			logging.String("pass", spec.attr),
			logging.Duration("begin", w.Begin),
			logging.Duration("end", w.End))
	}
	return nil
}
