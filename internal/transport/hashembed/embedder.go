// Package hashembed provides a deterministic, offline embedding provider: a
// hashed bag-of-words vector, L2-normalized. It needs no network and always
// produces the same vector for the same text, which makes snapshot builds
// reproducible in development and tests. Retrieval quality is well below a
// learned model; production deployments configure the openai provider.
package hashembed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/specdex/specdex/internal/domain"
)

// Embedder hashes tokens into a fixed-dimension vector.
type Embedder struct {
	dimensions int
}

// New creates a hashing embedder.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &Embedder{dimensions: dimensions}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := make([]float32, e.dimensions)

	tokens := tokenize(text)
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(e.dimensions))
		// Sign from a hash bit spreads tokens across both directions,
		// reducing collisions' impact on cosine similarity.
		if sum&0x80000000 != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	normalize(vec)
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: len(tokens)}, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
