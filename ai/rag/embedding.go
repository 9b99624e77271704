// Package rag implements the retrieval collaborator consumed by the subsidy
// agent: query embedding plus vector similarity search over the official
// scheme store.
package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Embedder generates query vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// EmbeddingConfig configures the embedding provider. Any OpenAI-compatible
// endpoint works.
type EmbeddingConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

type embeddingService struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewEmbedder creates an Embedder backed by an OpenAI-compatible embeddings
// endpoint.
func NewEmbedder(cfg EmbeddingConfig) (Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embedding API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &embeddingService{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

func (s *embeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(s.model),
		Dimensions: s.dimensions,
	}

	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}

	return resp.Data[0].Embedding, nil
}

func (s *embeddingService) Dimensions() int {
	return s.dimensions
}
