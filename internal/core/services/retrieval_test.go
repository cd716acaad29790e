package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

func cannedResults() []domain.QueryResult {
	return []domain.QueryResult{
		{Content: "a", Score: 0.9},
		{Content: "b", Score: 0.7},
		{Content: "c", Score: 0.5},
		{Content: "d", Score: 0.3},
		{Content: "e", Score: 0.2},
		{Content: "f", Score: 0.1},
	}
}

func TestRetrievalService_Query_BlankText(t *testing.T) {
	embedder := &mockEmbeddingService{}
	index := &mockVectorIndex{exists: true, results: cannedResults()}
	svc := NewRetrievalService(embedder, index)

	for _, q := range []string{"", "   ", "\n\t"} {
		results, err := svc.Query(context.Background(), q, 3)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
	assert.Zero(t, embedder.queries)
}

func TestRetrievalService_Query_StoreAbsent(t *testing.T) {
	embedder := &mockEmbeddingService{}
	svc := NewRetrievalService(embedder, memory.NewVectorIndex())

	results, err := svc.Query(context.Background(), "vacation policy", 3)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, embedder.queries)
}

func TestRetrievalService_Query_StoreVanishes(t *testing.T) {
	index := &mockVectorIndex{exists: true, searchErr: domain.ErrStoreUnavailable}
	svc := NewRetrievalService(&mockEmbeddingService{}, index)

	results, err := svc.Query(context.Background(), "vacation policy", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrievalService_Query_DefaultK(t *testing.T) {
	tests := []struct {
		name  string
		opts  []RetrievalOption
		k     int
		wantK int
	}{
		{"explicit k", nil, 2, 2},
		{"zero uses default", nil, 0, domain.DefaultTopK},
		{"negative uses default", nil, -1, domain.DefaultTopK},
		{"configured default", []RetrievalOption{WithDefaultK(3)}, 0, 3},
		{"invalid option ignored", []RetrievalOption{WithDefaultK(-4)}, 0, domain.DefaultTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &mockVectorIndex{exists: true, results: cannedResults()}
			svc := NewRetrievalService(&mockEmbeddingService{}, index, tt.opts...)

			results, err := svc.Query(context.Background(), "query", tt.k)
			require.NoError(t, err)
			assert.Equal(t, tt.wantK, index.searchK)
			assert.Len(t, results, tt.wantK)
		})
	}
}

func TestRetrievalService_Query_MinScore(t *testing.T) {
	index := &mockVectorIndex{exists: true, results: cannedResults()}
	svc := NewRetrievalService(&mockEmbeddingService{}, index, WithMinScore(0.5))

	results, err := svc.Query(context.Background(), "query", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "c", results[2].Content)
}

func TestRetrievalService_Query_EmbeddingError(t *testing.T) {
	embedder := &mockEmbeddingService{queryErr: errors.New("timeout")}
	svc := NewRetrievalService(embedder, &mockVectorIndex{exists: true})

	_, err := svc.Query(context.Background(), "query", 3)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Contains(t, err.Error(), "embed query")
}

func TestRetrievalService_Query_SearchError(t *testing.T) {
	index := &mockVectorIndex{exists: true, searchErr: domain.ErrEmbeddingMismatch}
	svc := NewRetrievalService(&mockEmbeddingService{}, index)

	_, err := svc.Query(context.Background(), "query", 3)
	assert.ErrorIs(t, err, domain.ErrEmbeddingMismatch)
}

func TestRetrievalService_Query_ExistsError(t *testing.T) {
	index := &mockVectorIndex{existsErr: errors.New("permission denied")}
	svc := NewRetrievalService(&mockEmbeddingService{}, index)

	_, err := svc.Query(context.Background(), "query", 3)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestRetrievalService_Query_MemoryIndex(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbeddingService{vectorFn: func(text string) []float32 {
		switch text {
		case "cats":
			return []float32{1, 0}
		case "dogs":
			return []float32{0, 1}
		default:
			return []float32{1, 1}
		}
	}}
	index := memory.NewVectorIndex()
	require.NoError(t, index.Rebuild(ctx,
		[]domain.Chunk{{ID: "1", Content: "cats"}, {ID: "2", Content: "dogs"}},
		[][]float32{{1, 0}, {0, 1}},
		embedder.ModelName()))

	results, err := NewRetrievalService(embedder, index).Query(ctx, "cats", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "cats", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.5, results[1].Score, 1e-9)
}

func TestRetrievalService_Stats(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		svc := NewRetrievalService(&mockEmbeddingService{}, memory.NewVectorIndex())
		_, ok, err := svc.Stats(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ready", func(t *testing.T) {
		want := driven.IndexStats{Chunks: 12, Model: "m", Dimensions: 3, Location: ":memory:"}
		svc := NewRetrievalService(&mockEmbeddingService{}, &mockVectorIndex{exists: true, stats: want})
		stats, ok, err := svc.Stats(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, stats)
	})

	t.Run("error", func(t *testing.T) {
		index := &mockVectorIndex{exists: true, statsErr: errors.New("disk I/O error")}
		svc := NewRetrievalService(&mockEmbeddingService{}, index)
		_, ok, err := svc.Stats(context.Background())
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
