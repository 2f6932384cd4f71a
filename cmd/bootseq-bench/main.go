package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

func main() {
	nodes := flag.Int("nodes", 10000, "Number of components to generate")
	fanout := flag.Int("fanout", 3, "Average requirements per component")
	cycles := flag.Int("cycles", 25, "Back-edges injected for the non-strict run")
	runs := flag.Int("runs", 5, "Timed runs per scenario")
	seed := flag.Int64("seed", 42, "Generator seed")
	flag.Parse()

	fmt.Printf("bootseq resolver benchmark\n")
	fmt.Printf("==========================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Components: %d\n", *nodes)
	fmt.Printf("  Fanout:     %d\n", *fanout)
	fmt.Printf("  Back-edges: %d\n", *cycles)
	fmt.Printf("  Runs:       %d\n\n", *runs)

	rng := rand.New(rand.NewSource(*seed))

	scenarios := []struct {
		name   string
		comps  []depgraph.Component
		deps   []depgraph.Dependency
		strict bool
	}{
		{"chain (strict)", chainComponents(*nodes), chainDeps(*nodes), true},
		{"layered fanout (strict)", chainComponents(*nodes), fanoutDeps(rng, *nodes, *fanout), true},
		{"layered fanout + cycles (non-strict)", chainComponents(*nodes),
			withBackEdges(rng, fanoutDeps(rng, *nodes, *fanout), *nodes, *cycles), false},
	}

	for _, sc := range scenarios {
		fmt.Printf("Scenario: %s\n", sc.name)
		fmt.Printf("  edges: %d\n", len(sc.deps))

		var buildTotal, scheduleTotal time.Duration
		var rejected int
		for i := 0; i < *runs; i++ {
			start := time.Now()
			g, err := depgraph.NewWithConfig(sc.comps, sc.deps, depgraph.Config{Strict: sc.strict})
			if err != nil {
				log.Fatalf("build failed: %v", err)
			}
			buildTotal += time.Since(start)
			rejected = len(g.RejectedEdges())

			start = time.Now()
			if _, err := schedule.NewPropagator(g).Compute(); err != nil {
				log.Fatalf("schedule failed: %v", err)
			}
			scheduleTotal += time.Since(start)
		}

		build := buildTotal / time.Duration(*runs)
		sched := scheduleTotal / time.Duration(*runs)
		perNode := build / time.Duration(*nodes)
		fmt.Printf("  build+resolve: %v avg (%v/component)\n", build, perNode)
		fmt.Printf("  schedule:      %v avg\n", sched)
		if rejected > 0 {
			fmt.Printf("  rejected edges: %d\n", rejected)
		}
		fmt.Println()
	}
}

func chainComponents(n int) []depgraph.Component {
	comps := make([]depgraph.Component, n)
	for i := range comps {
		comps[i] = depgraph.Component{
			Name:  fmt.Sprintf("svc-%05d", i),
			Attrs: depgraph.Durations(time.Duration(1+i%30)*time.Second, time.Duration(1+i%10)*time.Second),
		}
	}
	return comps
}

// chainDeps links each component to its predecessor.
func chainDeps(n int) []depgraph.Dependency {
	deps := make([]depgraph.Dependency, 0, n-1)
	for i := 1; i < n; i++ {
		deps = append(deps, depgraph.Dependency{
			Dependent:   fmt.Sprintf("svc-%05d", i-1),
			Requirement: fmt.Sprintf("svc-%05d", i),
		})
	}
	return deps
}

// fanoutDeps links each component to up to fanout later components,
// which keeps the graph acyclic by construction.
func fanoutDeps(rng *rand.Rand, n, fanout int) []depgraph.Dependency {
	deps := make([]depgraph.Dependency, 0, n*fanout)
	seen := make(map[[2]int]bool)
	for i := 0; i < n-1; i++ {
		for f := 0; f < fanout; f++ {
			j := i + 1 + rng.Intn(n-i-1)
			if seen[[2]int{i, j}] {
				continue
			}
			seen[[2]int{i, j}] = true
			deps = append(deps, depgraph.Dependency{
				Dependent:   fmt.Sprintf("svc-%05d", i),
				Requirement: fmt.Sprintf("svc-%05d", j),
			})
		}
	}
	return deps
}

// withBackEdges injects edges pointing from later to earlier components;
// any of them that lands on a forward path closes a cycle.
func withBackEdges(rng *rand.Rand, deps []depgraph.Dependency, n, count int) []depgraph.Dependency {
	out := make([]depgraph.Dependency, len(deps), len(deps)+count)
	copy(out, deps)
	seen := make(map[[2]int]bool)
	for _, d := range deps {
		var i, j int
		fmt.Sscanf(d.Dependent, "svc-%d", &i)
		fmt.Sscanf(d.Requirement, "svc-%d", &j)
		seen[[2]int{i, j}] = true
	}
	for added := 0; added < count; {
		j := 1 + rng.Intn(n-1)
		i := rng.Intn(j)
		if seen[[2]int{j, i}] {
			continue
		}
		seen[[2]int{j, i}] = true
		out = append(out, depgraph.Dependency{
			Dependent:   fmt.Sprintf("svc-%05d", j),
			Requirement: fmt.Sprintf("svc-%05d", i),
		})
		added++
	}
	return out
}
