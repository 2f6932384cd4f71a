package depgraph

import (
	"github.com/kestrelworks/bootseq/pkg/logging"
)

// Traversal colors. WHITE = unvisited, GRAY = sequenced but children not
// yet fully scanned, BLACK = settled. GRAY is what lets a single
// Kahn-style pass recognize back-edges: indegree alone cannot tell "not
// yet ready" from "part of a cycle".
const (
	white uint8 = iota
	gray
	black
)

// resolve runs the combined indegree/coloring traversal: it fills the
// topological order, detects cycles, and in non-strict mode excises
// exactly the edges that were in the way of the traversal already
// happening. Roots must be current when called.
func (g *Graph) resolve() error {
	done := g.span(1, "cycle resolution")
	defer done()

	color := make([]uint8, len(g.nodes))
	indegree := make([]int, len(g.nodes))
	for i, n := range g.nodes {
		indegree[i] = len(n.parents)
	}

	g.order = g.order[:0]

	// Seed with every current root, in insertion order.
	queue := make([]int, 0, len(g.nodes))
	for _, r := range g.roots {
		color[r] = gray
		g.order = append(g.order, r)
		queue = append(queue, r)
		g.vlog(3, "seeded root", logging.Component(g.nodes[r].name))
	}
	if err := g.drain(queue, color, indegree); err != nil {
		return err
	}

	// Nodes still WHITE sit on cycles no root can reach. Strict mode
	// fails listing all of them. Non-strict mode promotes one at a time:
	// strip its incoming edges, seed it as a fresh root, drain again.
	for {
		w := lastWhite(color)
		if w < 0 {
			break
		}
		if g.strict {
			return cycleError("resolve", g.names(whiteSet(color)))
		}

		incoming := make([]int, len(g.nodes[w].parents))
		copy(incoming, g.nodes[w].parents)
		for _, p := range incoming {
			g.removeEdge(p, w)
			g.rejected = append(g.rejected, Dependency{
				Dependent:   g.nodes[p].name,
				Requirement: g.nodes[w].name,
			})
			g.vlog(2, "rejected edge", logging.Edge(g.nodes[p].name, g.nodes[w].name))
		}
		indegree[w] = 0
		color[w] = gray
		g.order = append(g.order, w)
		g.vlog(2, "promoted to root", logging.Component(g.nodes[w].name))

		if err := g.drain([]int{w}, color, indegree); err != nil {
			return err
		}
	}

	g.recomputeRoots()
	g.recomputeLeaves()
	g.epoch++
	return nil
}

// drain processes the FIFO queue until empty. For each popped node it
// scans children in edge insertion order; WHITE children count down
// their indegree and join the order at zero, GRAY children mark
// back-edges, BLACK children are settled. Back-edges are excised only
// after the full child scan so the scan never iterates a mutating slice.
func (g *Graph) drain(queue []int, color []uint8, indegree []int) error {
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]

		var backEdges []int
		for _, c := range g.nodes[r].children {
			switch color[c] {
			case white:
				indegree[c]--
				g.vlog(3, "indegree decremented",
					logging.Component(g.nodes[c].name),
					logging.Int("remaining", indegree[c]))
				if indegree[c] == 0 {
					color[c] = gray
					g.order = append(g.order, c)
					queue = append(queue, c)
				}
			case gray:
				if g.strict {
					return cycleError("resolve", []string{g.nodes[r].name, g.nodes[c].name})
				}
				backEdges = append(backEdges, c)
			case black:
				// settled, nothing to do
			}
		}

		for _, c := range backEdges {
			g.removeEdge(r, c)
			g.rejected = append(g.rejected, Dependency{
				Dependent:   g.nodes[r].name,
				Requirement: g.nodes[c].name,
			})
			g.vlog(2, "rejected edge", logging.Edge(g.nodes[r].name, g.nodes[c].name))
		}
		color[r] = black
	}
	return nil
}

// lastWhite returns the highest arena index still WHITE, or -1. Taking
// the most recently inserted node keeps the excision set reproducible
// for a given input order.
func lastWhite(color []uint8) int {
	for i := len(color) - 1; i >= 0; i-- {
		if color[i] == white {
			return i
		}
	}
	return -1
}

func whiteSet(color []uint8) []int {
	var out []int
	for i, c := range color {
		if c == white {
			out = append(out, i)
		}
	}
	return out
}

func (g *Graph) names(idxs []int) []string {
	out := make([]string, len(idxs))
	for i, idx := range idxs {
		out[i] = g.nodes[idx].name
	}
	return out
}
