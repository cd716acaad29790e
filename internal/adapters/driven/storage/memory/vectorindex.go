package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex holds chunks and their vectors in process memory and ranks
// them by brute-force cosine similarity. Nothing survives a restart.
type VectorIndex struct {
	mu      sync.RWMutex
	built   bool
	model   string
	dims    int
	chunks  []domain.Chunk
	vectors [][]float32
}

// NewVectorIndex creates an absent in-memory index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// Rebuild replaces every stored chunk.
func (v *VectorIndex) Rebuild(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, model string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dims, err := domain.ValidateVectors(chunks, vectors)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.built = true
	v.model = model
	v.dims = dims
	v.chunks = cloneChunks(chunks)
	v.vectors = cloneVectors(vectors)
	return nil
}

// Add appends chunks to the built index.
func (v *VectorIndex) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, model string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.built {
		return 0, domain.ErrStoreUnavailable
	}
	if model != v.model {
		return 0, fmt.Errorf("%w: store uses %q, got %q", domain.ErrEmbeddingMismatch, v.model, model)
	}
	dims, err := domain.ValidateVectors(chunks, vectors)
	if err != nil {
		return 0, err
	}
	if dims != v.dims {
		return 0, fmt.Errorf("%w: store has %d dimensions, got %d", domain.ErrEmbeddingMismatch, v.dims, dims)
	}

	v.chunks = append(v.chunks, cloneChunks(chunks)...)
	v.vectors = append(v.vectors, cloneVectors(vectors)...)
	return len(chunks), nil
}

// Search ranks every stored chunk against query.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int, model string) ([]domain.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.built {
		return nil, domain.ErrStoreUnavailable
	}
	if model != v.model {
		return nil, fmt.Errorf("%w: store uses %q, got %q", domain.ErrEmbeddingMismatch, v.model, model)
	}
	if len(query) != v.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d", domain.ErrEmbeddingMismatch, len(query), v.dims)
	}
	if k <= 0 {
		k = domain.DefaultTopK
	}

	candidates := make([]domain.ScoredChunk, len(v.chunks))
	for i := range v.chunks {
		candidates[i] = domain.ScoredChunk{
			Chunk: v.chunks[i],
			Score: domain.RelevanceFromCosine(domain.Cosine(query, v.vectors[i])),
		}
	}
	return domain.TopK(candidates, k, 0), nil
}

// Exists reports whether Rebuild has been called.
func (v *VectorIndex) Exists(_ context.Context) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.built, nil
}

// Stats describes the index.
func (v *VectorIndex) Stats(_ context.Context) (driven.IndexStats, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.built {
		return driven.IndexStats{}, domain.ErrStoreUnavailable
	}
	return driven.IndexStats{
		Chunks:     len(v.chunks),
		Model:      v.model,
		Dimensions: v.dims,
		Location:   ":memory:",
	}, nil
}

// Close drops the stored data.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.built = false
	v.chunks = nil
	v.vectors = nil
	return nil
}

func cloneChunks(in []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, len(in))
	copy(out, in)
	return out
}

func cloneVectors(in [][]float32) [][]float32 {
	out := make([][]float32, len(in))
	for i, vec := range in {
		out[i] = append([]float32(nil), vec...)
	}
	return out
}
