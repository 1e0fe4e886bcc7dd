package agent

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is the in-tree default embedder: a token-hash bag vector.
// Each lowercased token is hashed into one of Dim buckets and the vector is
// L2-normalized, so cosine similarity reduces to a dot product. It captures
// lexical overlap only, not semantics, but it is deterministic, needs no
// network, and gives search a meaningful ordering out of the box.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder creates a HashEmbedder with the given dimension.
// Dimensions below 8 are raised to 8.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim < 8 {
		dim = 8
	}
	return &HashEmbedder{Dim: dim}
}

// Embed hashes tokens of text into a normalized bag vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.Dim)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[int(h.Sum32())%e.Dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// tokenize splits text into lowercased alphanumeric runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
