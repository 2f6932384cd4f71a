// Package postgres persists manifests and computed plans.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a manifest or plan does not exist.
var ErrNotFound = errors.New("postgres: not found")

// Store wraps a pgx connection pool.
type Store struct {
	db *pgxpool.Pool
}

// New connects to the database at dsn and verifies the connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{db: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.db.Close()
}
