// Package postgres implements store.Driver on PostgreSQL with pgvector for
// scheme similarity search.
package postgres

import (
	"context"
	"database/sql"
	"strconv"

	// Postgres driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// DB is the Postgres implementation of store.Driver.
type DB struct {
	db         *sql.DB
	dimensions int
}

// NewDB opens a Postgres connection for the given DSN. dimensions is the
// embedding vector size used by the scheme table.
func NewDB(dsn string, dimensions int) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("dsn is required")
	}
	if dimensions <= 0 {
		return nil, errors.New("embedding dimensions must be positive")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres connection")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping postgres")
	}

	return &DB{db: db, dimensions: dimensions}, nil
}

// Migrate creates the pgvector extension and the subsidy scheme table.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS subsidy_scheme (
			id SERIAL PRIMARY KEY,
			scheme_name TEXT NOT NULL UNIQUE,
			eligibility TEXT NOT NULL DEFAULT '',
			benefits TEXT NOT NULL DEFAULT '',
			application_steps TEXT NOT NULL DEFAULT '',
			documents TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			embedding vector(` + strconv.Itoa(d.dimensions) + `) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subsidy_scheme_embedding
			ON subsidy_scheme USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "run migration statement")
		}
	}
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
