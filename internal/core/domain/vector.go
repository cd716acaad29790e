package domain

import (
	"fmt"
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ValidateVectors checks that there is one vector per chunk and that every
// vector has the same non-zero length, which it returns.
func ValidateVectors(chunks []Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("%w: %d chunks but %d vectors", ErrInvalidInput, len(chunks), len(vectors))
	}
	if len(vectors) == 0 {
		return 0, ErrEmptyBatch
	}
	dims := len(vectors[0])
	if dims == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrInvalidInput)
	}
	for i, v := range vectors {
		if len(v) != dims {
			return 0, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrEmbeddingMismatch, i, len(v), dims)
		}
	}
	return dims, nil
}

// ScoredChunk pairs a stored chunk with its relevance to a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// TopK ranks candidates by descending score and keeps the first k.
// Ties keep their original order. Candidates below minScore are dropped.
func TopK(candidates []ScoredChunk, k int, minScore float64) []QueryResult {
	kept := candidates[:0:0]
	for _, c := range candidates {
		if c.Score >= minScore {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if k > 0 && len(kept) > k {
		kept = kept[:k]
	}

	results := make([]QueryResult, len(kept))
	for i, c := range kept {
		results[i] = QueryResult{
			Content:  c.Chunk.Content,
			Metadata: c.Chunk.ResultMetadata(),
			Score:    c.Score,
		}
	}
	return results
}
