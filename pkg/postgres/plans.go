package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

// PlanRecord is a persisted plan. ManifestID is empty for plans built
// from ad-hoc manifests that were never stored.
type PlanRecord struct {
	ID         string                `json:"id"`
	ManifestID string                `json:"manifest_id,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	Order      []string              `json:"order"`
	Rejected   []depgraph.Dependency `json:"rejected,omitempty"`
	Entries    []schedule.Entry      `json:"entries"`
}

// SavePlan stores a plan record. A missing ID is filled in; the
// (possibly generated) ID is returned.
func (s *Store) SavePlan(ctx context.Context, rec PlanRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Rejected == nil {
		rec.Rejected = []depgraph.Dependency{}
	}

	entries, err := json.Marshal(rec.Entries)
	if err != nil {
		return "", fmt.Errorf("postgres: encode entries: %w", err)
	}
	order, err := json.Marshal(rec.Order)
	if err != nil {
		return "", fmt.Errorf("postgres: encode order: %w", err)
	}
	rejected, err := json.Marshal(rec.Rejected)
	if err != nil {
		return "", fmt.Errorf("postgres: encode rejected: %w", err)
	}

	var manifestID *string
	if rec.ManifestID != "" {
		manifestID = &rec.ManifestID
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO plans (id, manifest_id, entries, order_json, rejected)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, manifestID, entries, order, rejected,
	); err != nil {
		return "", fmt.Errorf("postgres: insert plan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("postgres: commit: %w", err)
	}
	return rec.ID, nil
}

// GetPlan retrieves a plan record by ID.
func (s *Store) GetPlan(ctx context.Context, id string) (*PlanRecord, error) {
	var (
		rec        PlanRecord
		manifestID *string
		entries    []byte
		order      []byte
		rejected   []byte
	)

	err := s.db.QueryRow(ctx,
		`SELECT id, manifest_id, created_at, entries, order_json, rejected
		 FROM plans WHERE id = $1`, id,
	).Scan(&rec.ID, &manifestID, &rec.CreatedAt, &entries, &order, &rejected)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: query plan: %w", err)
	}

	if manifestID != nil {
		rec.ManifestID = *manifestID
	}
	if err := json.Unmarshal(entries, &rec.Entries); err != nil {
		return nil, fmt.Errorf("postgres: decode entries: %w", err)
	}
	if err := json.Unmarshal(order, &rec.Order); err != nil {
		return nil, fmt.Errorf("postgres: decode order: %w", err)
	}
	if err := json.Unmarshal(rejected, &rec.Rejected); err != nil {
		return nil, fmt.Errorf("postgres: decode rejected: %w", err)
	}

	return &rec, nil
}

// ListPlans returns all stored plans, newest first.
func (s *Store) ListPlans(ctx context.Context) ([]PlanRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, manifest_id, created_at, entries, order_json, rejected
		 FROM plans ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: query plans: %w", err)
	}
	defer rows.Close()

	recs := []PlanRecord{}
	for rows.Next() {
		var (
			rec        PlanRecord
			manifestID *string
			entries    []byte
			order      []byte
			rejected   []byte
		)
		if err := rows.Scan(&rec.ID, &manifestID, &rec.CreatedAt, &entries, &order, &rejected); err != nil {
			return nil, fmt.Errorf("postgres: scan plan: %w", err)
		}
		if manifestID != nil {
			rec.ManifestID = *manifestID
		}
		if err := json.Unmarshal(entries, &rec.Entries); err != nil {
			return nil, fmt.Errorf("postgres: decode entries: %w", err)
		}
		if err := json.Unmarshal(order, &rec.Order); err != nil {
			return nil, fmt.Errorf("postgres: decode order: %w", err)
		}
		if err := json.Unmarshal(rejected, &rec.Rejected); err != nil {
			return nil, fmt.Errorf("postgres: decode rejected: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows plans: %w", err)
	}
	return recs, nil
}
