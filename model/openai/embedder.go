package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// Embedder computes text embeddings through the OpenAI Embeddings API.
type Embedder struct {
	client *openai.Client
	model  string
}

// EmbedderOptions configure NewEmbedder.
type EmbedderOptions struct {
	Model      string
	APIKey     string
	BaseURL    string
	MaxRetries int
}

// NewEmbedder creates an Embedder (text-embedding-3-small by default).
func NewEmbedder(optFns ...func(o *EmbedderOptions)) *Embedder {
	opts := EmbedderOptions{Model: string(openai.EmbeddingModelTextEmbedding3Small), MaxRetries: 2}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := openai.NewClient(clientOptions(Options{APIKey: opts.APIKey, BaseURL: opts.BaseURL, MaxRetries: opts.MaxRetries})...)

	return &Embedder{client: &client, model: opts.Model}
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings error: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings error: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(vectors) {
			return nil, fmt.Errorf("openai embeddings error: index %d out of range", d.Index)
		}

		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}
