package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("text %d", i)
	}
	return out
}

func TestEmbedDocuments_Batches(t *testing.T) {
	embedder := &mockEmbeddingService{}

	vectors, err := embedDocuments(context.Background(), embedder, texts(7), 3)
	require.NoError(t, err)
	assert.Len(t, vectors, 7)
	assert.Equal(t, []int{3, 3, 1}, embedder.batches)
}

func TestEmbedDocuments_DefaultBatchSize(t *testing.T) {
	embedder := &mockEmbeddingService{}

	_, err := embedDocuments(context.Background(), embedder, texts(40), 0)
	require.NoError(t, err)
	assert.Equal(t, []int{domain.DefaultBatchSize, 8}, embedder.batches)
}

func TestEmbedDocuments_Empty(t *testing.T) {
	embedder := &mockEmbeddingService{}

	vectors, err := embedDocuments(context.Background(), embedder, nil, 3)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, embedder.batches)
}

func TestEmbedDocuments_InconsistentDimensions(t *testing.T) {
	embedder := &mockEmbeddingService{vectorFn: func(text string) []float32 {
		if text == "text 4" {
			return []float32{1, 2}
		}
		return []float32{1, 2, 3}
	}}

	_, err := embedDocuments(context.Background(), embedder, texts(6), 2)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Contains(t, err.Error(), "embed batch 3")
	assert.Contains(t, err.Error(), "vector 4")
}

func TestEmbedDocuments_EmptyVector(t *testing.T) {
	embedder := &mockEmbeddingService{vectorFn: func(string) []float32 { return nil }}

	_, err := embedDocuments(context.Background(), embedder, texts(1), 2)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

type shortEmbedder struct{ mockEmbeddingService }

func (s *shortEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)-1), nil
}

func TestEmbedDocuments_WrongCount(t *testing.T) {
	_, err := embedDocuments(context.Background(), &shortEmbedder{}, texts(3), 10)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Contains(t, err.Error(), "got 2 vectors for 3 texts")
}

func TestEmbeddingError(t *testing.T) {
	ctx := context.Background()

	err := embeddingError(ctx, "embed query", errors.New("boom"))
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Equal(t, "embed query: embedding service error: boom", err.Error())

	tagged := fmt.Errorf("%w: rate limited", domain.ErrEmbeddingService)
	err = embeddingError(ctx, "embed batch 1", tagged)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Equal(t, 1, strings.Count(err.Error(), "embedding service error"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = embeddingError(cancelled, "embed batch 1", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrEmbeddingService)
}
