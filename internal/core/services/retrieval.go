package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService answers similarity queries against the vector store.
type RetrievalService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	defaultK int
	minScore float64
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithDefaultK sets the result count used when a query asks for k <= 0.
func WithDefaultK(k int) RetrievalOption {
	return func(s *RetrievalService) {
		if k > 0 {
			s.defaultK = k
		}
	}
}

// WithMinScore drops results scoring below min.
func WithMinScore(min float64) RetrievalOption {
	return func(s *RetrievalService) {
		if min >= 0 && min <= 1 {
			s.minScore = min
		}
	}
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(embedder driven.EmbeddingService, index driven.VectorIndex, opts ...RetrievalOption) *RetrievalService {
	s := &RetrievalService{
		embedder: embedder,
		index:    index,
		defaultK: domain.DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query embeds text and returns the k most similar chunks.
// A blank query or a store that has not been built yields no results.
func (s *RetrievalService) Query(ctx context.Context, text string, k int) ([]domain.QueryResult, error) {
	if strings.TrimSpace(text) == "" {
		return []domain.QueryResult{}, nil
	}
	if k <= 0 {
		k = s.defaultK
	}

	exists, err := s.index.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check store: %w", err)
	}
	if !exists {
		logger.Debug("query %q: store not built", text)
		return []domain.QueryResult{}, nil
	}

	vec, err := embedQuery(ctx, s.embedder, text)
	if err != nil {
		return nil, err
	}

	results, err := s.index.Search(ctx, vec, k, s.embedder.ModelName())
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return []domain.QueryResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if s.minScore > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.Score >= s.minScore {
				kept = append(kept, r)
			}
		}
		results = kept
	}
	if results == nil {
		results = []domain.QueryResult{}
	}
	logger.Debug("query %q: %d results", text, len(results))
	return results, nil
}

// Stats describes the store. ok is false when it has not been built.
func (s *RetrievalService) Stats(ctx context.Context) (driven.IndexStats, bool, error) {
	exists, err := s.index.Exists(ctx)
	if err != nil {
		return driven.IndexStats{}, false, fmt.Errorf("check store: %w", err)
	}
	if !exists {
		return driven.IndexStats{}, false, nil
	}
	stats, err := s.index.Stats(ctx)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return driven.IndexStats{}, false, nil
	}
	if err != nil {
		return driven.IndexStats{}, false, fmt.Errorf("store stats: %w", err)
	}
	return stats, true, nil
}
