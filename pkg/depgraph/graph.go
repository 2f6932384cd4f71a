// Package depgraph builds directed graphs of named components linked by
// "requires" relationships, guarantees acyclicity (rejecting or excising
// cycles), and produces the topological order the schedule propagator
// consumes. Nodes live in a flat arena; edges are insertion-ordered
// index slices, so traversal order is deterministic for a given input
// order.
package depgraph

import (
	"github.com/kestrelworks/bootseq/pkg/logging"
)

// Component is one construction input: a named unit plus its attributes.
// Inputs are ordered slices because insertion order anchors root seeding
// and excision determinism.
type Component struct {
	Name  string
	Attrs Attributes
}

// Dependency declares that Dependent requires Requirement.
type Dependency struct {
	Dependent   string `json:"dependent"`
	Requirement string `json:"requirement"`
}

// Config carries construction options. The logger and verbosity feed a
// diagnostic side channel only; they never affect algorithmic outcomes.
type Config struct {
	// Strict makes any cycle a fatal construction error. Non-strict
	// mode excises just enough edges to break cycles and records them.
	Strict bool
	// Logger receives diagnostics. Nil means no output.
	Logger logging.Logger
	// Verbosity gates diagnostic detail: 1 phase banners, 2 structural
	// events, 3 per-edge traversal steps.
	Verbosity int
}

type node struct {
	idx      int
	name     string
	attrs    Attributes
	children []int // arena indexes of requirements, edge insertion order
	parents  []int // arena indexes of dependents, edge insertion order
}

// Graph owns the node arena and aggregate views. After construction the
// surviving edge set is acyclic and the topological order contains every
// node exactly once.
type Graph struct {
	nodes    []*node
	byName   map[string]int
	roots    []int
	leaves   []int
	order    []int
	rejected []Dependency
	strict   bool
	epoch    uint64

	log       logging.Logger
	verbosity int
}

// New constructs a graph in strict mode: components are inserted in
// order, then dependencies, then cycle resolution runs. Any validation
// failure or cycle aborts construction.
func New(components []Component, deps []Dependency) (*Graph, error) {
	return NewWithConfig(components, deps, Config{Strict: true})
}

// NewWithConfig constructs a graph with explicit options.
func NewWithConfig(components []Component, deps []Dependency, cfg Config) (*Graph, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	g := &Graph{
		nodes:     make([]*node, 0, len(components)),
		byName:    make(map[string]int, len(components)),
		strict:    cfg.Strict,
		log:       log,
		verbosity: cfg.Verbosity,
	}

	done := g.span(1, "graph construction")
	defer done()

	for _, c := range components {
		if err := g.addNode(c.Name, c.Attrs); err != nil {
			return nil, err
		}
	}
	for _, d := range deps {
		if err := g.addEdge(d.Dependent, d.Requirement); err != nil {
			return nil, err
		}
	}
	g.recomputeRoots()

	if err := g.resolve(); err != nil {
		return nil, err
	}

	g.log.Debug("graph constructed",
		logging.Int("nodes", g.NumNodes()),
		logging.Int("edges", g.NumEdges()),
		logging.Int("rejected", len(g.rejected)))
	return g, nil
}

// addNode inserts a component with empty edge sets.
func (g *Graph) addNode(name string, attrs Attributes) error {
	if _, exists := g.byName[name]; exists {
		return duplicateComponentError(name)
	}
	n := &node{
		idx:   len(g.nodes),
		name:  name,
		attrs: attrs.Clone(),
	}
	g.nodes = append(g.nodes, n)
	g.byName[name] = n.idx
	g.vlog(2, "node added", logging.Component(name))
	return nil
}

// addEdge links dependent -> requirement in both directions.
func (g *Graph) addEdge(dependent, requirement string) error {
	di, ok := g.byName[dependent]
	if !ok {
		return unknownComponentError("addEdge", dependent)
	}
	ri, ok := g.byName[requirement]
	if !ok {
		return unknownComponentError("addEdge", requirement)
	}
	if containsIndex(g.nodes[di].children, ri) {
		return duplicateDependencyError(dependent, requirement)
	}
	g.nodes[di].children = append(g.nodes[di].children, ri)
	g.nodes[ri].parents = append(g.nodes[ri].parents, di)
	g.vlog(2, "edge added", logging.Edge(dependent, requirement))
	return nil
}

// removeEdge unlinks both directions. Idempotent; only the resolver
// calls it, during cycle excision.
func (g *Graph) removeEdge(dependent, requirement int) {
	g.nodes[dependent].children = removeIndex(g.nodes[dependent].children, requirement)
	g.nodes[requirement].parents = removeIndex(g.nodes[requirement].parents, dependent)
}

func (g *Graph) recomputeRoots() {
	g.roots = g.roots[:0]
	for _, n := range g.nodes {
		if len(n.parents) == 0 {
			g.roots = append(g.roots, n.idx)
		}
	}
}

func (g *Graph) recomputeLeaves() {
	g.leaves = g.leaves[:0]
	for _, n := range g.nodes {
		if len(n.children) == 0 {
			g.leaves = append(g.leaves, n.idx)
		}
	}
}

func containsIndex(list []int, idx int) bool {
	for _, v := range list {
		if v == idx {
			return true
		}
	}
	return false
}

func removeIndex(list []int, idx int) []int {
	for i, v := range list {
		if v == idx {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func (g *Graph) vlog(v int, msg string, fields ...logging.Field) {
	if g.verbosity >= v {
		g.log.Debug(msg, fields...)
	}
}

func (g *Graph) span(v int, name string) func() {
	if g.verbosity < v {
		return func() {}
	}
	return logging.Span(g.log, name)
}
