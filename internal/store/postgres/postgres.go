// Package postgres implements the draft store interfaces on PostgreSQL via
// pgx. Schema lives in schema.sql.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stores bundles the four store implementations sharing one pool.
type Stores struct {
	Sessions *SessionStore
	Picks    *PickStore
	Queues   *QueueStore
	Players  *PlayerStore

	pool *pgxpool.Pool
}

// Connect opens a pool and wires the stores.
func Connect(ctx context.Context, dsn string) (*Stores, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Stores{
		Sessions: &SessionStore{pool: pool},
		Picks:    &PickStore{pool: pool},
		Queues:   &QueueStore{pool: pool},
		Players:  &PlayerStore{pool: pool},
		pool:     pool,
	}, nil
}

// Close releases the pool.
func (s *Stores) Close() {
	s.pool.Close()
}
