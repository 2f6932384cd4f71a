package postgres

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/manifest"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

// testStore connects to the database named by BOOTSEQ_TEST_DSN and
// resets the schema. Tests are skipped when the variable is unset.
func testStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("BOOTSEQ_TEST_DSN")
	if dsn == "" {
		t.Skip("BOOTSEQ_TEST_DSN not set; skipping postgres integration tests")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := store.DropSchema(ctx); err != nil {
		t.Fatalf("Failed to drop schema: %v", err)
	}
	if err := store.CreateSchema(ctx); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		store.DropSchema(ctx)
		store.Close()
	})
	return store
}

func testManifest() *manifest.Manifest {
	return &manifest.Manifest{
		Strict: true,
		Components: []manifest.ComponentSpec{
			{
				Name:     "database",
				Startup:  manifest.Duration{Duration: 30 * time.Second},
				Shutdown: manifest.Duration{Duration: 10 * time.Second},
			},
			{
				Name:     "api",
				Startup:  manifest.Duration{Duration: 5 * time.Second},
				Shutdown: manifest.Duration{Duration: 5 * time.Second},
			},
		},
		Dependencies: []manifest.DependencySpec{
			{Component: "api", Requires: "database"},
		},
	}
}

// TestStore_ManifestRoundTrip tests saving and reloading a manifest
func TestStore_ManifestRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	want := testManifest()
	id, err := store.SaveManifest(ctx, "service-stack", want)
	if err != nil {
		t.Fatalf("Failed to save manifest: %v", err)
	}
	if id == "" {
		t.Fatal("Expected non-empty manifest ID")
	}

	got, err := store.GetManifest(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get manifest: %v", err)
	}
	if got.Name != "service-stack" {
		t.Errorf("Expected name service-stack, got %s", got.Name)
	}
	if !got.Manifest.Strict {
		t.Error("Expected strict manifest")
	}
	if !reflect.DeepEqual(got.Manifest.Components, want.Components) {
		t.Errorf("Expected components %+v, got %+v", want.Components, got.Manifest.Components)
	}
	if !reflect.DeepEqual(got.Manifest.Dependencies, want.Dependencies) {
		t.Errorf("Expected dependencies %+v, got %+v", want.Dependencies, got.Manifest.Dependencies)
	}

	infos, err := store.ListManifests(ctx)
	if err != nil {
		t.Fatalf("Failed to list manifests: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("Expected 1 manifest, got %d", len(infos))
	}
	if infos[0].Components != 2 {
		t.Errorf("Expected 2 components in listing, got %d", infos[0].Components)
	}
}

// TestStore_GetManifest_NotFound tests the missing-manifest error
func TestStore_GetManifest_NotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.GetManifest(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// TestStore_PlanRoundTrip tests saving and reloading plans
func TestStore_PlanRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	manifestID, err := store.SaveManifest(ctx, "service-stack", testManifest())
	if err != nil {
		t.Fatalf("Failed to save manifest: %v", err)
	}

	want := PlanRecord{
		ManifestID: manifestID,
		Order:      []string{"database", "api"},
		Rejected:   []depgraph.Dependency{{Dependent: "api", Requirement: "api"}},
		Entries: []schedule.Entry{
			{
				Component: "database",
				Startup:   schedule.Window{Begin: 0, End: 30 * time.Second},
				Shutdown:  schedule.Window{Begin: -10 * time.Second, End: 0},
			},
		},
	}

	id, err := store.SavePlan(ctx, want)
	if err != nil {
		t.Fatalf("Failed to save plan: %v", err)
	}

	got, err := store.GetPlan(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get plan: %v", err)
	}
	if got.ManifestID != manifestID {
		t.Errorf("Expected manifest ID %s, got %s", manifestID, got.ManifestID)
	}
	if !reflect.DeepEqual(got.Order, want.Order) {
		t.Errorf("Expected order %v, got %v", want.Order, got.Order)
	}
	if !reflect.DeepEqual(got.Rejected, want.Rejected) {
		t.Errorf("Expected rejected %v, got %v", want.Rejected, got.Rejected)
	}
	if !reflect.DeepEqual(got.Entries, want.Entries) {
		t.Errorf("Expected entries %+v, got %+v", want.Entries, got.Entries)
	}

	// A plan without a stored manifest keeps a NULL reference.
	adhocID, err := store.SavePlan(ctx, PlanRecord{
		Order:   []string{"solo"},
		Entries: []schedule.Entry{{Component: "solo"}},
	})
	if err != nil {
		t.Fatalf("Failed to save ad-hoc plan: %v", err)
	}
	adhoc, err := store.GetPlan(ctx, adhocID)
	if err != nil {
		t.Fatalf("Failed to get ad-hoc plan: %v", err)
	}
	if adhoc.ManifestID != "" {
		t.Errorf("Expected empty manifest ID, got %s", adhoc.ManifestID)
	}

	plans, err := store.ListPlans(ctx)
	if err != nil {
		t.Fatalf("Failed to list plans: %v", err)
	}
	if len(plans) != 2 {
		t.Errorf("Expected 2 plans, got %d", len(plans))
	}
}

// TestStore_GetPlan_NotFound tests the missing-plan error
func TestStore_GetPlan_NotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.GetPlan(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
