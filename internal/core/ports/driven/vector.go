package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// VectorIndex persists chunks with their embeddings and answers
// similarity queries.
//
// The store is either ABSENT (never built) or READY. Rebuild moves it to
// READY from either state; Add and Search require READY.
type VectorIndex interface {
	// Rebuild atomically replaces the entire store with the given chunks.
	// vectors[i] is the embedding of chunks[i]. model is recorded so later
	// calls can detect a different embedding space.
	Rebuild(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, model string) error

	// Add appends chunks to an existing store in one transaction.
	// Returns domain.ErrStoreUnavailable when the store is absent and
	// domain.ErrEmbeddingMismatch when model differs from the recorded one.
	Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, model string) (int, error)

	// Search returns up to k results ordered by descending score.
	// Returns domain.ErrStoreUnavailable when the store is absent.
	Search(ctx context.Context, query []float32, k int, model string) ([]domain.QueryResult, error)

	// Exists reports whether the store has been built.
	Exists(ctx context.Context) (bool, error)

	// Stats describes the store.
	Stats(ctx context.Context) (IndexStats, error)

	// Close releases resources.
	Close() error
}

// IndexStats describes a built store.
type IndexStats struct {
	// Chunks is the number of stored vectors.
	Chunks int

	// Model is the embedding model the store was built with.
	Model string

	// Dimensions is the stored vector size.
	Dimensions int

	// Location is a human-readable description of where the store lives.
	Location string
}
