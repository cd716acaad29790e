package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 1}))
	assert.Zero(t, Cosine(nil, nil))
}

func TestValidateVectors(t *testing.T) {
	chunks := []Chunk{{Content: "a"}, {Content: "b"}}

	dims, err := ValidateVectors(chunks, [][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, dims)

	_, err = ValidateVectors(chunks, [][]float32{{1, 2}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ValidateVectors(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = ValidateVectors(chunks, [][]float32{{}, {}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ValidateVectors(chunks, [][]float32{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)
}

func TestTopK(t *testing.T) {
	candidates := []ScoredChunk{
		{Chunk: Chunk{Content: "low"}, Score: 0.2},
		{Chunk: Chunk{Content: "high", Source: "a.pdf", Page: 3, Start: 10}, Score: 0.9},
		{Chunk: Chunk{Content: "tie-first"}, Score: 0.5},
		{Chunk: Chunk{Content: "tie-second"}, Score: 0.5},
	}

	results := TopK(candidates, 3, 0)
	require.Len(t, results, 3)
	assert.Equal(t, "high", results[0].Content)
	assert.Equal(t, "tie-first", results[1].Content)
	assert.Equal(t, "tie-second", results[2].Content)
	assert.Equal(t, "a.pdf", results[0].Source())
	assert.Equal(t, 3, results[0].Page())
	assert.Equal(t, 10, results[0].Metadata[MetaStartIndex])

	assert.Equal(t, "low", candidates[0].Chunk.Content, "input order untouched")
}

func TestTopK_MinScoreAndBounds(t *testing.T) {
	candidates := []ScoredChunk{
		{Chunk: Chunk{Content: "a"}, Score: 0.7},
		{Chunk: Chunk{Content: "b"}, Score: 0.3},
	}

	assert.Len(t, TopK(candidates, 10, 0), 2)
	assert.Len(t, TopK(candidates, 10, 0.5), 1)
	assert.Empty(t, TopK(nil, 5, 0))
}
