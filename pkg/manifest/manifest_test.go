package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
)

const validYAML = `
strict: true
components:
  - name: database
    startup: 30s
    shutdown: 10s
  - name: api
    startup: 5s
    shutdown: 5s
dependencies:
  - component: api
    requires: database
`

func TestParse_Valid(t *testing.T) {
	m, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !m.Strict {
		t.Error("Strict = false, want true")
	}
	if len(m.Components) != 2 {
		t.Fatalf("Components = %d, want 2", len(m.Components))
	}
	if m.Components[0].Name != "database" || m.Components[0].Startup.Duration != 30*time.Second {
		t.Errorf("component[0] = %+v", m.Components[0])
	}
	if len(m.Dependencies) != 1 {
		t.Fatalf("Dependencies = %d, want 1", len(m.Dependencies))
	}
	if m.Dependencies[0].Component != "api" || m.Dependencies[0].Requires != "database" {
		t.Errorf("dependency[0] = %+v", m.Dependencies[0])
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{
			name:    "broken yaml",
			yaml:    "components: [",
			wantSub: "parse",
		},
		{
			name:    "no components",
			yaml:    "strict: false\ncomponents: []\n",
			wantSub: "Components",
		},
		{
			name: "missing name",
			yaml: `
components:
  - startup: 1s
    shutdown: 1s
`,
			wantSub: "required",
		},
		{
			name: "bad name charset",
			yaml: `
components:
  - name: "bad name!"
    startup: 1s
    shutdown: 1s
`,
			wantSub: "invalid characters",
		},
		{
			name: "name too long",
			yaml: "components:\n  - name: " + strings.Repeat("a", 129) + "\n    startup: 1s\n    shutdown: 1s\n",
			wantSub: "must not exceed 128",
		},
		{
			name: "negative duration",
			yaml: `
components:
  - name: db
    startup: -5s
    shutdown: 1s
`,
			wantSub: "must not be negative",
		},
		{
			name: "unparseable duration",
			yaml: `
components:
  - name: db
    startup: soon
    shutdown: 1s
`,
			wantSub: "invalid duration",
		},
		{
			name: "numeric duration",
			yaml: `
components:
  - name: db
    startup: 30
    shutdown: 1s
`,
			wantSub: "must be a string",
		},
		{
			name: "dependency missing requires",
			yaml: `
components:
  - name: db
    startup: 1s
    shutdown: 1s
dependencies:
  - component: db
`,
			wantSub: "required",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.yaml))
			if err == nil {
				t.Fatal("Parse should have failed")
			}
			if !strings.Contains(err.Error(), c.wantSub) {
				t.Errorf("err = %q, want substring %q", err, c.wantSub)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stack.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Components) != 2 {
		t.Errorf("Components = %d, want 2", len(m.Components))
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load of missing file should fail")
	}
}

func TestManifest_Converters(t *testing.T) {
	m, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	comps := m.GraphComponents()
	if len(comps) != 2 || comps[0].Name != "database" {
		t.Fatalf("GraphComponents = %+v", comps)
	}
	up, err := comps[0].Attrs.Duration(depgraph.AttrStartup)
	if err != nil || up != 30*time.Second {
		t.Errorf("database startup attr = %v, %v", up, err)
	}

	deps := m.GraphDependencies()
	if len(deps) != 1 || deps[0].Dependent != "api" || deps[0].Requirement != "database" {
		t.Errorf("GraphDependencies = %+v", deps)
	}
}

func TestManifest_Build(t *testing.T) {
	m, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	g, err := m.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	order := g.TopologicalOrder()
	if len(order) != 2 || order[0] != "api" || order[1] != "database" {
		t.Errorf("TopologicalOrder = %v", order)
	}
	if !g.Strict() {
		t.Error("graph should be strict")
	}
}

const cyclicYAML = `
strict: %s
components:
  - name: a
    startup: 1s
    shutdown: 1s
  - name: b
    startup: 1s
    shutdown: 1s
dependencies:
  - component: a
    requires: b
  - component: b
    requires: a
`

func TestManifest_BuildCyclic(t *testing.T) {
	strictDoc := strings.Replace(cyclicYAML, "%s", "true", 1)
	m, err := Parse([]byte(strictDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := m.Build(); !errors.Is(err, depgraph.ErrCycleDetected) {
		t.Errorf("strict Build err = %v, want ErrCycleDetected", err)
	}

	looseDoc := strings.Replace(cyclicYAML, "%s", "false", 1)
	m, err = Parse([]byte(looseDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	g, err := m.Build()
	if err != nil {
		t.Fatalf("non-strict Build failed: %v", err)
	}
	if len(g.RejectedEdges()) != 1 {
		t.Errorf("RejectedEdges = %v, want one excision", g.RejectedEdges())
	}
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	if err := d.UnmarshalJSON([]byte(`"90s"`)); err != nil || d.Duration != 90*time.Second {
		t.Errorf("UnmarshalJSON = %v, %v", d.Duration, err)
	}
	if err := d.UnmarshalJSON([]byte(`30`)); err == nil {
		t.Error("bare number should be rejected")
	}

	out, err := Duration{90 * time.Second}.MarshalJSON()
	if err != nil || string(out) != `"1m30s"` {
		t.Errorf("MarshalJSON = %s, %v", out, err)
	}
}
