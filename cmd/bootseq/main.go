package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/journal"
	"github.com/kestrelworks/bootseq/pkg/logging"
	"github.com/kestrelworks/bootseq/pkg/manifest"
	"github.com/kestrelworks/bootseq/pkg/render"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

func main() {
	manifestPath := flag.String("manifest", "", "Path to the component manifest (YAML)")
	strictFlag := flag.String("strict", "", "Override the manifest's strict mode (true|false)")
	format := flag.String("format", "text", "Output format: text, xml, tree, table, json")
	direction := flag.String("direction", "topdown", "Expansion direction for xml/tree: topdown or bottomup")
	verbosity := flag.Int("v", 0, "Diagnostic verbosity (0-3)")
	journalDir := flag.String("journal", "", "Append the computed plan to a journal in this directory")
	flag.Parse()

	if *manifestPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	m, err := manifest.Load(*manifestPath)
	if err != nil {
		log.Fatalf("load manifest: %v", err)
	}
	if err := m.Validate(); err != nil {
		log.Fatalf("validate manifest: %v", err)
	}
	if *strictFlag != "" {
		strict, err := strconv.ParseBool(*strictFlag)
		if err != nil {
			log.Fatalf("-strict must be true or false, got %q", *strictFlag)
		}
		m.Strict = strict
	}

	cfg := depgraph.Config{Verbosity: *verbosity}
	if *verbosity > 0 {
		cfg.Logger = logging.NewJSONLogger(os.Stderr, logging.DebugLevel)
	}

	g, err := m.BuildWithConfig(cfg)
	if err != nil {
		log.Fatalf("build graph: %v", err)
	}

	plan, err := schedule.NewPropagatorWithConfig(g, schedule.Config{Logger: cfg.Logger}).Compute()
	if err != nil {
		log.Fatalf("compute schedule: %v", err)
	}

	if *journalDir != "" {
		appendJournal(*journalDir, g, plan)
	}

	dir := render.TopDown
	switch *direction {
	case "topdown":
	case "bottomup":
		dir = render.BottomUp
	default:
		log.Fatalf("-direction must be topdown or bottomup, got %q", *direction)
	}

	switch *format {
	case "text":
		printReport(g, plan)
	case "xml":
		fmt.Print(render.XML(g, render.Options{Direction: dir, IncludeAttrs: true, Plan: plan}))
	case "tree":
		fmt.Print(render.Tree(g, render.Options{Direction: dir}))
	case "table":
		fmt.Print(render.PlanTable(plan))
	case "json":
		printJSON(g, plan)
	default:
		log.Fatalf("unknown format %q", *format)
	}
}

// printReport mirrors the classic demonstration driver: rejected edges,
// topological order, then both timing tables.
func printReport(g *depgraph.Graph, plan *schedule.Plan) {
	fmt.Printf("Components: %d   Dependencies: %d\n", g.NumNodes(), g.NumEdges())

	if rejected := g.RejectedEdges(); len(rejected) > 0 {
		fmt.Printf("\nRejected dependencies (%d):\n", len(rejected))
		for _, d := range rejected {
			fmt.Printf("  %s -> %s\n", d.Dependent, d.Requirement)
		}
	}

	fmt.Printf("\nProcessing order:\n")
	for i, name := range g.TopologicalOrder() {
		fmt.Printf("  %2d. %s\n", i+1, name)
	}

	fmt.Printf("\nStartup windows (by begin):\n")
	for _, e := range plan.ByStartupBegin() {
		fmt.Printf("  %-24s %12s .. %-12s\n", e.Component, e.Startup.Begin, e.Startup.End)
	}

	fmt.Printf("\nShutdown windows (latest first):\n")
	byShutdown := plan.ByShutdownBegin()
	for i := len(byShutdown) - 1; i >= 0; i-- {
		e := byShutdown[i]
		fmt.Printf("  %-24s %12s .. %-12s\n", e.Component, e.Shutdown.Begin, e.Shutdown.End)
	}

	fmt.Printf("\nTotal startup: %s   Shutdown lead time: %s\n",
		plan.TotalStartup(), -plan.TotalShutdown())
}

func printJSON(g *depgraph.Graph, plan *schedule.Plan) {
	out := struct {
		Nodes    int                   `json:"nodes"`
		Edges    int                   `json:"edges"`
		Roots    []string              `json:"roots"`
		Leaves   []string              `json:"leaves"`
		Order    []string              `json:"order"`
		Rejected []depgraph.Dependency `json:"rejected,omitempty"`
		Plan     *schedule.Plan        `json:"plan"`
	}{
		Nodes:    g.NumNodes(),
		Edges:    g.NumEdges(),
		Roots:    g.Roots(),
		Leaves:   g.Leaves(),
		Order:    g.TopologicalOrder(),
		Rejected: g.RejectedEdges(),
		Plan:     plan,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func appendJournal(dir string, g *depgraph.Graph, plan *schedule.Plan) {
	j, err := journal.Open(dir)
	if err != nil {
		log.Fatalf("open journal: %v", err)
	}
	defer j.Close()

	seq, err := j.Append(journal.PlanRecord{
		PlanID:    plan.ID,
		CreatedAt: time.Now().UTC(),
		Order:     g.TopologicalOrder(),
		Rejected:  g.RejectedEdges(),
		Entries:   plan.Entries,
	})
	if err != nil {
		log.Fatalf("journal append: %v", err)
	}
	fmt.Fprintf(os.Stderr, "journaled plan %s as record %d\n", plan.ID, seq)
}
