// Package render produces human-readable views of a resolved graph and its
// schedule. It walks the graph through the public accessors only, so it can
// be swapped for any other formatter without touching the core.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

// Direction selects which way the graph is expanded.
type Direction int

const (
	// TopDown starts at the roots and descends through requirements.
	TopDown Direction = iota
	// BottomUp starts at the leaves and climbs through dependents.
	BottomUp
)

func (d Direction) String() string {
	if d == BottomUp {
		return "bottom-up"
	}
	return "top-down"
}

// Options configures XML and Tree output.
type Options struct {
	Direction    Direction
	IncludeAttrs bool
	// Plan, when set, adds the computed windows to each element.
	Plan *schedule.Plan
	// Indent is the number of leading spaces before the outermost element.
	Indent int
}

// XML renders the graph as indented XML. Components reachable through
// several paths appear once per path; the expansion terminates because the
// resolved graph is acyclic.
func XML(g *depgraph.Graph, opts Options) string {
	var b strings.Builder
	prefix := strings.Repeat(" ", opts.Indent)

	b.WriteString(prefix)
	b.WriteString("<graph>\n")
	for _, name := range startNodes(g, opts.Direction) {
		writeComponent(&b, g, opts, name, opts.Indent+2)
	}
	b.WriteString(prefix)
	b.WriteString("</graph>\n")
	return b.String()
}

func startNodes(g *depgraph.Graph, dir Direction) []string {
	if dir == BottomUp {
		return g.Leaves()
	}
	return g.Roots()
}

func nextNodes(g *depgraph.Graph, dir Direction, name string) []string {
	if dir == BottomUp {
		parents, _ := g.Dependents(name)
		return parents
	}
	reqs, _ := g.Requirements(name)
	return reqs
}

func writeComponent(b *strings.Builder, g *depgraph.Graph, opts Options, name string, indent int) {
	prefix := strings.Repeat(" ", indent)
	b.WriteString(prefix)
	b.WriteString("<component name='")
	b.WriteString(escapeAttr(name))
	b.WriteString("'")

	if opts.IncludeAttrs {
		if attrs, ok := g.Attrs(name); ok {
			keys := make([]string, 0, len(attrs))
			for k := range attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(b, " %s='%s'", escapeAttr(k), escapeAttr(attrs[k].String()))
			}
		}
	}

	if opts.Plan != nil {
		if e, ok := opts.Plan.Entry(name); ok {
			fmt.Fprintf(b, " startupBegin='%v' startupEnd='%v' shutdownBegin='%v' shutdownEnd='%v'",
				e.Startup.Begin, e.Startup.End, e.Shutdown.Begin, e.Shutdown.End)
		}
	}

	next := nextNodes(g, opts.Direction, name)
	if len(next) == 0 {
		b.WriteString("/>\n")
		return
	}

	b.WriteString(">\n")
	for _, child := range next {
		writeComponent(b, g, opts, child, indent+2)
	}
	b.WriteString(prefix)
	b.WriteString("</component>\n")
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
)

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// Tree renders the graph as a box-drawing tree, one block per start node.
func Tree(g *depgraph.Graph, opts Options) string {
	var b strings.Builder
	for _, name := range startNodes(g, opts.Direction) {
		b.WriteString(name)
		b.WriteString("\n")
		writeBranches(&b, g, opts, name, "")
	}
	return b.String()
}

func writeBranches(b *strings.Builder, g *depgraph.Graph, opts Options, name, prefix string) {
	next := nextNodes(g, opts.Direction, name)
	for i, child := range next {
		connector, descent := "├── ", "│   "
		if i == len(next)-1 {
			connector, descent = "└── ", "    "
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(child)
		b.WriteString("\n")
		writeBranches(b, g, opts, child, prefix+descent)
	}
}

// PlanTable renders the schedule as aligned text columns in plan order.
func PlanTable(p *schedule.Plan) string {
	nameWidth := len("COMPONENT")
	for _, e := range p.Entries {
		if len(e.Component) > nameWidth {
			nameWidth = len(e.Component)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %-22s  %s\n", nameWidth, "COMPONENT", "STARTUP", "SHUTDOWN")
	for _, e := range p.Entries {
		fmt.Fprintf(&b, "%-*s  %-22s  %s\n",
			nameWidth, e.Component,
			window(e.Startup), window(e.Shutdown))
	}
	return b.String()
}

func window(w schedule.Window) string {
	return fmt.Sprintf("[%v, %v)", w.Begin, w.End)
}
