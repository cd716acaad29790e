package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// embedDocuments embeds texts in batches and checks that every batch
// returns one non-empty vector per text, all of the same length.
func embedDocuments(ctx context.Context, svc driven.EmbeddingService, texts []string, batchSize int) ([][]float32, error) {
	if batchSize < 1 {
		batchSize = domain.DefaultBatchSize
	}

	vectors := make([][]float32, 0, len(texts))
	dims := 0
	for start, batch := 0, 1; start < len(texts); start, batch = start+batchSize, batch+1 {
		end := min(start+batchSize, len(texts))

		got, err := svc.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			return nil, embeddingError(ctx, fmt.Sprintf("embed batch %d", batch), err)
		}
		if len(got) != end-start {
			return nil, fmt.Errorf("embed batch %d: %w: got %d vectors for %d texts",
				batch, domain.ErrEmbeddingService, len(got), end-start)
		}
		for i, v := range got {
			if dims == 0 {
				dims = len(v)
			}
			if len(v) == 0 || len(v) != dims {
				return nil, fmt.Errorf("embed batch %d: %w: vector %d has %d dimensions, want %d",
					batch, domain.ErrEmbeddingService, start+i, len(v), dims)
			}
		}
		vectors = append(vectors, got...)
	}
	return vectors, nil
}

// embedQuery embeds a single query.
func embedQuery(ctx context.Context, svc driven.EmbeddingService, text string) ([]float32, error) {
	vec, err := svc.EmbedQuery(ctx, text)
	if err != nil {
		return nil, embeddingError(ctx, "embed query", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embed query: %w: empty vector", domain.ErrEmbeddingService)
	}
	return vec, nil
}

// embeddingError tags err with domain.ErrEmbeddingService unless it already
// carries it or the context ended.
func embeddingError(ctx context.Context, stage string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return fmt.Errorf("%s: %w", stage, err)
	}
	if errors.Is(err, domain.ErrEmbeddingService) {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return fmt.Errorf("%s: %w: %w", stage, domain.ErrEmbeddingService, err)
}
