// Package knowledge implements retrieval over document collections: loaders
// produce documents, the Knowledge base chunks and embeds them into a
// VectorStore, and Search returns the closest chunks for a query. Agents
// reach a knowledge base through the search_knowledge_base tool.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Document is a unit of retrievable text. Score is set by searches.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Source   string            `json:"source,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score,omitempty"`
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorStore persists document vectors and answers nearest neighbour
// queries ordered by descending similarity.
type VectorStore interface {
	Upsert(ctx context.Context, docs []Document, vectors [][]float64) error
	Query(ctx context.Context, vector []float64, k int) ([]Document, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Loader produces the raw documents of a knowledge base.
type Loader interface {
	Load(ctx context.Context) ([]Document, error)
}

// ErrNoEmbedder is returned when a Knowledge base has no embedder.
var ErrNoEmbedder = errors.New("knowledge: embedder is required")

// Options configures a Knowledge base.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	// BatchSize bounds how many chunks are embedded per request.
	BatchSize int
	Loaders   []Loader
}

// Knowledge couples loaders, an embedder and a vector store.
type Knowledge struct {
	store    VectorStore
	embedder Embedder
	opts     Options
}

// New creates a Knowledge base over store.
func New(store VectorStore, embedder Embedder, optFns ...func(o *Options)) (*Knowledge, error) {
	opts := Options{ChunkSize: 1000, ChunkOverlap: 100, BatchSize: 32}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}

	if embedder == nil {
		return nil, ErrNoEmbedder
	}

	if store == nil {
		return nil, errors.New("knowledge: vector store is required")
	}

	if opts.ChunkOverlap >= opts.ChunkSize {
		return nil, fmt.Errorf("knowledge: chunk overlap %d must be smaller than chunk size %d", opts.ChunkOverlap, opts.ChunkSize)
	}

	return &Knowledge{store: store, embedder: embedder, opts: opts}, nil
}

// Load runs every loader and indexes the resulting documents. With recreate
// the store is cleared first; otherwise a non-empty store is left untouched.
func (k *Knowledge) Load(ctx context.Context, recreate bool) error {
	if recreate {
		if err := k.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear vector store: %w", err)
		}
	} else {
		n, err := k.store.Count(ctx)
		if err != nil {
			return fmt.Errorf("count vectors: %w", err)
		}

		if n > 0 {
			return nil
		}
	}

	for _, l := range k.opts.Loaders {
		docs, err := l.Load(ctx)
		if err != nil {
			return fmt.Errorf("load documents: %w", err)
		}

		if err := k.Add(ctx, docs...); err != nil {
			return err
		}
	}

	return nil
}

// Add chunks, embeds and upserts docs.
func (k *Knowledge) Add(ctx context.Context, docs ...Document) error {
	var chunks []Document
	for _, d := range docs {
		chunks = append(chunks, Chunk(d, k.opts.ChunkSize, k.opts.ChunkOverlap)...)
	}

	for start := 0; start < len(chunks); start += k.opts.BatchSize {
		end := min(start+k.opts.BatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := k.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}

		if len(vectors) != len(batch) {
			return fmt.Errorf("embed chunks: expected %d vectors, got %d", len(batch), len(vectors))
		}

		if err := k.store.Upsert(ctx, batch, vectors); err != nil {
			return fmt.Errorf("upsert chunks: %w", err)
		}
	}

	return nil
}

// Search returns up to limit documents whose similarity is at least
// threshold, best first. A zero threshold keeps every hit.
func (k *Knowledge) Search(ctx context.Context, query string, limit int, threshold float64) ([]Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("knowledge: empty query")
	}

	vectors, err := k.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}

	docs, err := k.store.Query(ctx, vectors[0], limit)
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w", err)
	}

	out := docs[:0]

	for _, d := range docs {
		if d.Score >= threshold {
			out = append(out, d)
		}
	}

	return out, nil
}

// Retriever binds search parameters to a knowledge base.
type Retriever struct {
	k         *Knowledge
	Limit     int
	Threshold float64
}

// Retriever returns a similarity-threshold retriever.
func (k *Knowledge) Retriever(limit int, threshold float64) *Retriever {
	return &Retriever{k: k, Limit: limit, Threshold: threshold}
}

// Retrieve returns the documents relevant to query.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	return r.k.Search(ctx, query, r.Limit, r.Threshold)
}

// FormatDocuments joins document contents for inclusion in a prompt.
func FormatDocuments(docs []Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, strings.TrimSpace(d.Content))
	}

	return strings.Join(parts, "\n\n")
}
