package knowledge

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic bag-of-words embedder for tests and
// offline demos: every lower-cased word is hashed into one of Dims buckets
// and the vector is L2 normalised.
type HashEmbedder struct {
	Dims int
}

// NewHashEmbedder creates a HashEmbedder with dims buckets (256 when <= 0).
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 256
	}

	return &HashEmbedder{Dims: dims}
}

// Embed implements Embedder.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))

	for i, t := range texts {
		vec := make([]float64, e.Dims)

		words := strings.FieldsFunc(strings.ToLower(t), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})

		for _, w := range words {
			h := fnv.New32a()
			_, _ = h.Write([]byte(w))
			vec[int(h.Sum32())%e.Dims]++
		}

		var norm float64
		for _, v := range vec {
			norm += v * v
		}

		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vec {
				vec[j] /= norm
			}
		}

		out[i] = vec
	}

	return out, nil
}
