package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ASGawde/AgriGPT/store"
)

// SchemeStore is the store surface the retriever needs.
type SchemeStore interface {
	SearchSubsidySchemes(ctx context.Context, find *store.FindSubsidyScheme) ([]*store.SubsidyScheme, error)
}

// SchemeRetriever embeds a cleaned query and searches the scheme store.
type SchemeRetriever struct {
	embedder Embedder
	store    SchemeStore
}

// NewSchemeRetriever creates a retriever over the given embedder and store.
func NewSchemeRetriever(embedder Embedder, schemeStore SchemeStore) *SchemeRetriever {
	return &SchemeRetriever{embedder: embedder, store: schemeStore}
}

// Search returns the topK schemes most similar to the cleaned query. An empty
// result is not an error; callers degrade gracefully on any failure.
func (r *SchemeRetriever) Search(ctx context.Context, cleanedQuery string, topK int) ([]*store.SubsidyScheme, error) {
	if cleanedQuery == "" {
		return nil, nil
	}

	vector, err := r.embedder.Embed(ctx, cleanedQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	schemes, err := r.store.SearchSubsidySchemes(ctx, &store.FindSubsidyScheme{
		Vector: vector,
		Limit:  topK,
	})
	if err != nil {
		return nil, fmt.Errorf("scheme search: %w", err)
	}

	slog.Debug("rag: scheme search complete",
		"matches", len(schemes),
		"top_k", topK)
	return schemes, nil
}
