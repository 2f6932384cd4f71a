package depgraph

// NumNodes returns the number of components.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// NumEdges returns the number of surviving dependency edges.
func (g *Graph) NumEdges() int {
	total := 0
	for _, n := range g.nodes {
		total += len(n.children)
	}
	return total
}

// Names returns every component name in insertion order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.name
	}
	return out
}

// Has reports whether a component exists.
func (g *Graph) Has(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// Attrs returns a copy of a component's attributes.
func (g *Graph) Attrs(name string) (Attributes, bool) {
	idx, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.nodes[idx].attrs.Clone(), true
}

// TopologicalOrder returns the component names in a total order
// consistent with all surviving edges, root-first.
func (g *Graph) TopologicalOrder() []string {
	return g.names(g.order)
}

// Roots returns the components nothing depends on, in insertion order.
func (g *Graph) Roots() []string {
	return g.names(g.roots)
}

// Leaves returns the components that require nothing (post-excision),
// in insertion order.
func (g *Graph) Leaves() []string {
	return g.names(g.leaves)
}

// RejectedEdges returns the dependencies excised during non-strict
// cycle remediation, in removal order. Empty for acyclic input or
// strict mode.
func (g *Graph) RejectedEdges() []Dependency {
	out := make([]Dependency, len(g.rejected))
	copy(out, g.rejected)
	return out
}

// Requirements returns the components name requires, in edge insertion
// order.
func (g *Graph) Requirements(name string) ([]string, error) {
	idx, ok := g.byName[name]
	if !ok {
		return nil, unknownComponentError("Requirements", name)
	}
	return g.names(g.nodes[idx].children), nil
}

// Dependents returns the components that require name, in edge
// insertion order.
func (g *Graph) Dependents(name string) ([]string, error) {
	idx, ok := g.byName[name]
	if !ok {
		return nil, unknownComponentError("Dependents", name)
	}
	return g.names(g.nodes[idx].parents), nil
}

// HasEdge reports whether dependent currently requires requirement.
func (g *Graph) HasEdge(dependent, requirement string) bool {
	di, ok := g.byName[dependent]
	if !ok {
		return false
	}
	ri, ok := g.byName[requirement]
	if !ok {
		return false
	}
	return containsIndex(g.nodes[di].children, ri)
}

// Strict reports the cycle policy the graph was built with.
func (g *Graph) Strict() bool {
	return g.strict
}

// Epoch identifies the edge set the current order was computed against.
// It advances on every successful resolution; schedules record it so
// they can detect staleness after later mutation.
func (g *Graph) Epoch() uint64 {
	return g.epoch
}

// ComponentView is a read-only snapshot of one component and its edges.
type ComponentView struct {
	Name         string
	Attrs        Attributes
	Requirements []string
	Dependents   []string
}

// Component returns a snapshot of one component.
func (g *Graph) Component(name string) (ComponentView, error) {
	idx, ok := g.byName[name]
	if !ok {
		return ComponentView{}, unknownComponentError("Component", name)
	}
	n := g.nodes[idx]
	return ComponentView{
		Name:         n.name,
		Attrs:        n.attrs.Clone(),
		Requirements: g.names(n.children),
		Dependents:   g.names(n.parents),
	}, nil
}

// Components returns snapshots of every component in insertion order.
func (g *Graph) Components() []ComponentView {
	out := make([]ComponentView, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, ComponentView{
			Name:         n.name,
			Attrs:        n.attrs.Clone(),
			Requirements: g.names(n.children),
			Dependents:   g.names(n.parents),
		})
	}
	return out
}

// AddDependency adds an edge to a finished graph and re-runs cycle
// resolution, since the existing order is only valid for the edge set
// it was computed against. In strict mode a resulting cycle fails and
// the graph is restored to its previous state.
func (g *Graph) AddDependency(dependent, requirement string) error {
	if err := g.addEdge(dependent, requirement); err != nil {
		return err
	}
	g.recomputeRoots()
	if err := g.resolve(); err != nil {
		// Strict-mode cycle: put the edge set back and rebuild the
		// derived views, which must succeed for the prior edge set.
		g.removeEdge(g.byName[dependent], g.byName[requirement])
		g.recomputeRoots()
		if rerr := g.resolve(); rerr != nil {
			return rerr
		}
		return err
	}
	return nil
}
