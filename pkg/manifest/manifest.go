// Package manifest loads component declarations from YAML (or JSON via the
// same tags) and turns them into dependency graphs. Validation covers shape
// only; duplicate names, unknown references and cycles are reported by the
// graph itself during construction.
package manifest

import (
	"fmt"
	"os"
	"time"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so manifests can write "30s" or "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		parsed, err := time.ParseDuration(string(data[1 : len(data)-1]))
		if err != nil {
			return fmt.Errorf("invalid duration %s: %w", data, err)
		}
		d.Duration = parsed
		return nil
	}
	return fmt.Errorf("duration must be a quoted string like \"30s\", got %s", data)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Duration.String() + `"`), nil
}

// ComponentSpec declares one component and its timing attributes.
type ComponentSpec struct {
	Name     string   `yaml:"name" json:"name" validate:"required,min=1,max=128"`
	Startup  Duration `yaml:"startup" json:"startup"`
	Shutdown Duration `yaml:"shutdown" json:"shutdown"`
}

// DependencySpec declares that Component requires Requires.
type DependencySpec struct {
	Component string `yaml:"component" json:"component" validate:"required,min=1,max=128"`
	Requires  string `yaml:"requires" json:"requires" validate:"required,min=1,max=128"`
}

// Manifest is the top-level document.
type Manifest struct {
	Strict       bool             `yaml:"strict" json:"strict"`
	Components   []ComponentSpec  `yaml:"components" json:"components" validate:"required,min=1,dive"`
	Dependencies []DependencySpec `yaml:"dependencies" json:"dependencies" validate:"omitempty,dive"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a YAML manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// GraphComponents converts the specs into graph components. Both duration
// attributes are always set; a manifest that omits them declares them zero.
func (m *Manifest) GraphComponents() []depgraph.Component {
	out := make([]depgraph.Component, len(m.Components))
	for i, c := range m.Components {
		out[i] = depgraph.Component{
			Name:  c.Name,
			Attrs: depgraph.Durations(c.Startup.Duration, c.Shutdown.Duration),
		}
	}
	return out
}

// GraphDependencies converts the dependency specs.
func (m *Manifest) GraphDependencies() []depgraph.Dependency {
	out := make([]depgraph.Dependency, len(m.Dependencies))
	for i, d := range m.Dependencies {
		out[i] = depgraph.Dependency{Dependent: d.Component, Requirement: d.Requires}
	}
	return out
}

// Build constructs the graph, honoring the manifest's strict flag.
func (m *Manifest) Build() (*depgraph.Graph, error) {
	return depgraph.NewWithConfig(m.GraphComponents(), m.GraphDependencies(),
		depgraph.Config{Strict: m.Strict})
}

// BuildWithConfig constructs the graph with the caller's logger and
// verbosity; strictness still comes from the manifest.
func (m *Manifest) BuildWithConfig(cfg depgraph.Config) (*depgraph.Graph, error) {
	cfg.Strict = m.Strict
	return depgraph.NewWithConfig(m.GraphComponents(), m.GraphDependencies(), cfg)
}
