package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// InMemoryStore is a VectorStore scanning every vector with cosine
// similarity. It suits tests and small corpora.
type InMemoryStore struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]Document
	vecs  map[string][]float64
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: map[string]Document{}, vecs: map[string][]float64{}}
}

// Upsert inserts or replaces documents by ID.
func (s *InMemoryStore) Upsert(_ context.Context, docs []Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("upsert: %d documents but %d vectors", len(docs), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range docs {
		if _, ok := s.docs[d.ID]; !ok {
			s.order = append(s.order, d.ID)
		}

		s.docs[d.ID] = d
		s.vecs[d.ID] = vectors[i]
	}

	return nil
}

// Query returns the k most similar documents. k <= 0 returns all.
func (s *InMemoryStore) Query(_ context.Context, vector []float64, k int) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.order))

	for _, id := range s.order {
		d := s.docs[id]
		d.Score = CosineSimilarity(vector, s.vecs[id])
		out = append(out, d)
	}

	return TopK(out, k), nil
}

// Count returns the number of stored documents.
func (s *InMemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs), nil
}

// Clear removes every document.
func (s *InMemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.docs = map[string]Document{}
	s.vecs = map[string][]float64{}

	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64

	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK sorts scored documents best first (stable) and keeps k of them.
func TopK(docs []Document, k int) []Document {
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })

	if k > 0 && len(docs) > k {
		docs = docs[:k]
	}

	return docs
}
