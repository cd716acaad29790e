package ai

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// defaultBackoff is how long calls pause after the provider reports a rate limit.
const defaultBackoff = 30 * time.Second

// RateLimitConfig holds rate limiting configuration for an embedding provider.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// RateLimiter is a token bucket with a backoff window for 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.BurstSize < 1 {
		cfg.BurstSize = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError pauses future calls for the given duration.
func (r *RateLimiter) RecordRateLimitError(backoff time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if backoff <= 0 {
		backoff = defaultBackoff
	}
	r.retryAt = time.Now().Add(backoff)
}

// Ensure RateLimitedEmbedding implements the interface.
var _ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)

// RateLimitedEmbedding throttles calls to a wrapped embedding service.
// Failed calls are not retried.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	limiter *RateLimiter
}

// WithRateLimit wraps svc so every embedding call waits on limiter.
func WithRateLimit(svc driven.EmbeddingService, limiter *RateLimiter) *RateLimitedEmbedding {
	return &RateLimitedEmbedding{EmbeddingService: svc, limiter: limiter}
}

// EmbedDocuments waits for the limiter, then delegates.
func (s *RateLimitedEmbedding) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vecs, err := s.EmbeddingService.EmbedDocuments(ctx, texts)
	s.observe(err)
	return vecs, err
}

// EmbedQuery waits for the limiter, then delegates.
func (s *RateLimitedEmbedding) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vec, err := s.EmbeddingService.EmbedQuery(ctx, text)
	s.observe(err)
	return vec, err
}

func (s *RateLimitedEmbedding) observe(err error) {
	if errors.Is(err, domain.ErrRateLimited) {
		s.limiter.RecordRateLimitError(0)
	}
}
