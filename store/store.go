// Package store provides domain models and database access for AgriGPT.
package store

import (
	"context"
)

// SubsidyScheme is one official government scheme record used as retrieval
// context by the subsidy agent.
type SubsidyScheme struct {
	ID               int32
	SchemeName       string
	Eligibility      string
	Benefits         string
	ApplicationSteps string
	Documents        string
	Notes            string

	// Embedding is the vector for similarity search. Populated on upsert,
	// not returned by searches.
	Embedding []float32
}

// FindSubsidyScheme describes a vector similarity search.
type FindSubsidyScheme struct {
	Vector []float32
	Limit  int
}

// Driver is an abstraction over the underlying database.
type Driver interface {
	Migrate(ctx context.Context) error

	UpsertSubsidyScheme(ctx context.Context, scheme *SubsidyScheme) (*SubsidyScheme, error)
	SearchSubsidySchemes(ctx context.Context, find *FindSubsidyScheme) ([]*SubsidyScheme, error)

	Close() error
}

// Store wraps a Driver with domain-level operations.
type Store struct {
	driver Driver
}

// New creates a Store backed by the given driver.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// Migrate runs schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// UpsertSubsidyScheme inserts or updates a scheme record.
func (s *Store) UpsertSubsidyScheme(ctx context.Context, scheme *SubsidyScheme) (*SubsidyScheme, error) {
	return s.driver.UpsertSubsidyScheme(ctx, scheme)
}

// SearchSubsidySchemes returns the closest scheme records for a query vector.
func (s *Store) SearchSubsidySchemes(ctx context.Context, find *FindSubsidyScheme) ([]*SubsidyScheme, error) {
	return s.driver.SearchSubsidySchemes(ctx, find)
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	return s.driver.Close()
}
