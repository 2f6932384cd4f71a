package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kestrelworks/bootseq/pkg/manifest"
)

// StoredManifest is a manifest row plus its reconstructed content.
type StoredManifest struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	Manifest  manifest.Manifest `json:"manifest"`
}

// ManifestInfo is a listing row.
type ManifestInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Strict     bool      `json:"strict"`
	Components int       `json:"components"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveManifest stores a manifest with its components and dependencies
// in one transaction and returns the new manifest ID.
func (s *Store) SaveManifest(ctx context.Context, name string, m *manifest.Manifest) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO manifests (id, name, strict) VALUES ($1, $2, $3)`,
		id, name, m.Strict,
	); err != nil {
		return "", fmt.Errorf("postgres: insert manifest: %w", err)
	}

	for i, c := range m.Components {
		if _, err := tx.Exec(ctx,
			`INSERT INTO components (manifest_id, name, startup_ms, shutdown_ms, position)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, c.Name, c.Startup.Milliseconds(), c.Shutdown.Milliseconds(), i,
		); err != nil {
			return "", fmt.Errorf("postgres: insert component %s: %w", c.Name, err)
		}
	}

	for i, d := range m.Dependencies {
		if _, err := tx.Exec(ctx,
			`INSERT INTO dependencies (manifest_id, dependent, requirement, position)
			 VALUES ($1, $2, $3, $4)`,
			id, d.Component, d.Requires, i,
		); err != nil {
			return "", fmt.Errorf("postgres: insert dependency %s->%s: %w", d.Component, d.Requires, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("postgres: commit: %w", err)
	}
	return id, nil
}

// GetManifest reconstructs a stored manifest by ID.
func (s *Store) GetManifest(ctx context.Context, id string) (*StoredManifest, error) {
	var sm StoredManifest
	sm.ID = id

	err := s.db.QueryRow(ctx,
		`SELECT name, strict, created_at FROM manifests WHERE id = $1`, id,
	).Scan(&sm.Name, &sm.Manifest.Strict, &sm.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: manifest %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: query manifest: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT name, startup_ms, shutdown_ms FROM components
		 WHERE manifest_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: query components: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c          manifest.ComponentSpec
			startupMS  int64
			shutdownMS int64
		)
		if err := rows.Scan(&c.Name, &startupMS, &shutdownMS); err != nil {
			return nil, fmt.Errorf("postgres: scan component: %w", err)
		}
		c.Startup = manifest.Duration{Duration: time.Duration(startupMS) * time.Millisecond}
		c.Shutdown = manifest.Duration{Duration: time.Duration(shutdownMS) * time.Millisecond}
		sm.Manifest.Components = append(sm.Manifest.Components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows components: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT dependent, requirement FROM dependencies
		 WHERE manifest_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: query dependencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d manifest.DependencySpec
		if err := rows.Scan(&d.Component, &d.Requires); err != nil {
			return nil, fmt.Errorf("postgres: scan dependency: %w", err)
		}
		sm.Manifest.Dependencies = append(sm.Manifest.Dependencies, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows dependencies: %w", err)
	}

	return &sm, nil
}

// ListManifests returns summaries of all stored manifests, newest first.
func (s *Store) ListManifests(ctx context.Context) ([]ManifestInfo, error) {
	rows, err := s.db.Query(ctx,
		`SELECT m.id, m.name, m.strict, m.created_at, COUNT(c.name)
		 FROM manifests m LEFT JOIN components c ON c.manifest_id = m.id
		 GROUP BY m.id ORDER BY m.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: query manifests: %w", err)
	}
	defer rows.Close()

	infos := []ManifestInfo{}
	for rows.Next() {
		var info ManifestInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Strict, &info.CreatedAt, &info.Components); err != nil {
			return nil, fmt.Errorf("postgres: scan manifest: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows manifests: %w", err)
	}
	return infos, nil
}
