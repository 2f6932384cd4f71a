package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS manifests (
    id         UUID PRIMARY KEY,
    name       TEXT NOT NULL,
    strict     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS components (
    manifest_id UUID NOT NULL REFERENCES manifests(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    startup_ms  BIGINT NOT NULL,
    shutdown_ms BIGINT NOT NULL,
    position    INT NOT NULL,
    PRIMARY KEY (manifest_id, name)
);

CREATE TABLE IF NOT EXISTS dependencies (
    manifest_id UUID NOT NULL REFERENCES manifests(id) ON DELETE CASCADE,
    dependent   TEXT NOT NULL,
    requirement TEXT NOT NULL,
    position    INT NOT NULL,
    PRIMARY KEY (manifest_id, dependent, requirement)
);

CREATE TABLE IF NOT EXISTS plans (
    id          UUID PRIMARY KEY,
    manifest_id UUID REFERENCES manifests(id) ON DELETE SET NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    entries     JSONB NOT NULL,
    order_json  JSONB NOT NULL,
    rejected    JSONB NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_components_manifest   ON components(manifest_id);
CREATE INDEX IF NOT EXISTS idx_dependencies_manifest ON dependencies(manifest_id);
CREATE INDEX IF NOT EXISTS idx_plans_manifest        ON plans(manifest_id);
`

// CreateSchema creates the bootseq tables if they don't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the bootseq tables.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS plans, dependencies, components, manifests CASCADE;`)
	return err
}
