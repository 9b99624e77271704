package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/ASGawde/AgriGPT/store"
)

// seedConcurrency bounds parallel embedding calls during seeding.
const seedConcurrency = 4

// SchemeWriter is the store surface the seeder needs.
type SchemeWriter interface {
	UpsertSubsidyScheme(ctx context.Context, scheme *store.SubsidyScheme) (*store.SubsidyScheme, error)
}

// Seeder loads official scheme records, embeds them, and writes them to the
// scheme store. Seeding is idempotent: records upsert by scheme name.
type Seeder struct {
	embedder Embedder
	store    SchemeWriter
}

// NewSeeder creates a Seeder over the given embedder and store.
func NewSeeder(embedder Embedder, schemeStore SchemeWriter) *Seeder {
	return &Seeder{embedder: embedder, store: schemeStore}
}

type schemeRecord struct {
	SchemeName       string `json:"scheme_name"`
	Eligibility      string `json:"eligibility"`
	Benefits         string `json:"benefits"`
	ApplicationSteps string `json:"application_steps"`
	Documents        string `json:"documents"`
	Notes            string `json:"notes"`
}

// SeedFromFile reads a JSON array of scheme records from path and seeds the
// store. It returns the number of records written.
func (s *Seeder) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read schemes file: %w", err)
	}

	var records []schemeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("parse schemes file: %w", err)
	}

	schemes := make([]*store.SubsidyScheme, 0, len(records))
	for _, r := range records {
		if r.SchemeName == "" {
			continue
		}
		schemes = append(schemes, &store.SubsidyScheme{
			SchemeName:       r.SchemeName,
			Eligibility:      r.Eligibility,
			Benefits:         r.Benefits,
			ApplicationSteps: r.ApplicationSteps,
			Documents:        r.Documents,
			Notes:            r.Notes,
		})
	}

	return s.Seed(ctx, schemes)
}

// Seed embeds and upserts the given schemes, a few at a time. The first
// failure cancels the remaining work.
func (s *Seeder) Seed(ctx context.Context, schemes []*store.SubsidyScheme) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)

	for _, scheme := range schemes {
		g.Go(func() error {
			vector, err := s.embedder.Embed(ctx, embeddingText(scheme))
			if err != nil {
				return fmt.Errorf("embed scheme %q: %w", scheme.SchemeName, err)
			}
			scheme.Embedding = vector

			if _, err := s.store.UpsertSubsidyScheme(ctx, scheme); err != nil {
				return fmt.Errorf("upsert scheme %q: %w", scheme.SchemeName, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	slog.Info("rag: scheme store seeded", "schemes", len(schemes))
	return len(schemes), nil
}

// embeddingText is the canonical text a scheme is embedded under. Search
// queries match against this shape.
func embeddingText(scheme *store.SubsidyScheme) string {
	return fmt.Sprintf("Scheme: %s\nEligibility: %s\nBenefits: %s\nNotes: %s\n",
		scheme.SchemeName, scheme.Eligibility, scheme.Benefits, scheme.Notes)
}
