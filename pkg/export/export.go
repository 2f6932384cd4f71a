// Package export ships finished plans to external storage. S3Exporter
// targets S3 or any S3-compatible object store; DirExporter writes the
// same documents under a local directory for setups without object
// storage.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

// Payload is the exported document, one per computed plan.
type Payload struct {
	GraphID   string                `json:"graph_id"`
	PlanID    string                `json:"plan_id"`
	CreatedAt time.Time             `json:"created_at"`
	Nodes     int                   `json:"nodes"`
	Edges     int                   `json:"edges"`
	Order     []string              `json:"order"`
	Rejected  []depgraph.Dependency `json:"rejected,omitempty"`
	Entries   []schedule.Entry      `json:"entries"`
}

// Exporter ships one document per computed plan.
type Exporter interface {
	Export(ctx context.Context, p Payload) error
}

// key returns the object path for a payload.
func key(prefix string, p Payload) string {
	if prefix == "" {
		return fmt.Sprintf("%s/%s.json", p.GraphID, p.PlanID)
	}
	return fmt.Sprintf("%s/%s/%s.json", strings.TrimSuffix(prefix, "/"), p.GraphID, p.PlanID)
}

// DirExporter writes payloads under a local directory, mirroring the
// object layout the S3 exporter uses.
type DirExporter struct {
	root string
}

var _ Exporter = (*DirExporter)(nil)

// NewDirExporter creates an exporter rooted at dir.
func NewDirExporter(dir string) *DirExporter {
	return &DirExporter{root: dir}
}

// Export writes the payload to <root>/<graph-id>/<plan-id>.json.
func (d *DirExporter) Export(_ context.Context, p Payload) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode payload: %w", err)
	}

	path := filepath.Join(d.root, p.GraphID, p.PlanID+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
