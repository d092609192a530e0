// Package db provides PostgreSQL persistence for tailoring sessions.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// schema holds the session table DDL. The scalar columns exist for
// querying and guarded updates; the full aggregate lives in the JSONB
// document so artifact shapes can evolve without migrations.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id                UUID PRIMARY KEY,
	resume_session_id TEXT NOT NULL,
	owner_id          TEXT NOT NULL DEFAULT '',
	scholarship_url   TEXT NOT NULL DEFAULT '',
	stage             TEXT NOT NULL,
	status            TEXT NOT NULL,
	version           INTEGER NOT NULL,
	data              JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sessions_resume_session
	ON sessions (resume_session_id, created_at DESC);
`

// EnsureSchema creates the sessions table if it does not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
