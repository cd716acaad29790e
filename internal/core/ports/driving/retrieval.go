package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// RetrievalService answers similarity queries against the store.
type RetrievalService interface {
	// Query returns up to k results ordered by descending score.
	// k <= 0 means the configured default. An absent store or blank query
	// yields an empty result, not an error.
	Query(ctx context.Context, text string, k int) ([]domain.QueryResult, error)

	// Stats describes the store; ok is false when it has not been built.
	Stats(ctx context.Context) (stats driven.IndexStats, ok bool, err error)
}
