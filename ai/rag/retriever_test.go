package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ASGawde/AgriGPT/store"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }

type fakeSchemeStore struct {
	lastFind *store.FindSubsidyScheme
	schemes  []*store.SubsidyScheme
	err      error
}

func (f *fakeSchemeStore) SearchSubsidySchemes(_ context.Context, find *store.FindSubsidyScheme) ([]*store.SubsidyScheme, error) {
	f.lastFind = find
	return f.schemes, f.err
}

func TestSchemeRetriever_Search(t *testing.T) {
	schemeStore := &fakeSchemeStore{
		schemes: []*store.SubsidyScheme{
			{SchemeName: "PM-Kisan", Eligibility: "small and marginal farmers"},
		},
	}
	retriever := NewSchemeRetriever(&fakeEmbedder{vector: []float32{0.1, 0.2}}, schemeStore)

	schemes, err := retriever.Search(context.Background(), "pm kisan eligibility", 3)
	require.NoError(t, err)
	require.Len(t, schemes, 1)
	assert.Equal(t, "PM-Kisan", schemes[0].SchemeName)
	assert.Equal(t, 3, schemeStore.lastFind.Limit)
	assert.Equal(t, []float32{0.1, 0.2}, schemeStore.lastFind.Vector)
}

func TestSchemeRetriever_EmptyQuery(t *testing.T) {
	schemeStore := &fakeSchemeStore{}
	retriever := NewSchemeRetriever(&fakeEmbedder{}, schemeStore)

	schemes, err := retriever.Search(context.Background(), "", 3)
	require.NoError(t, err)
	assert.Nil(t, schemes)
	assert.Nil(t, schemeStore.lastFind, "no search for an empty query")
}

func TestSchemeRetriever_EmbedFailure(t *testing.T) {
	retriever := NewSchemeRetriever(&fakeEmbedder{err: errors.New("provider down")}, &fakeSchemeStore{})

	_, err := retriever.Search(context.Background(), "drip subsidy", 3)
	assert.Error(t, err)
}

func TestSchemeRetriever_StoreFailure(t *testing.T) {
	retriever := NewSchemeRetriever(
		&fakeEmbedder{vector: []float32{0.5}},
		&fakeSchemeStore{err: errors.New("db unreachable")},
	)

	_, err := retriever.Search(context.Background(), "drip subsidy", 3)
	assert.Error(t, err)
}
