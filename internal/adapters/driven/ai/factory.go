// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docrag/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/docrag/internal/adapters/driven/embedding/hashing"
	hugotembed "github.com/custodia-labs/docrag/internal/adapters/driven/embedding/hugot"
	"github.com/custodia-labs/docrag/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/docrag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docrag settings embedding' to fix",
			domain.ErrEmbeddingService, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docrag settings embedding' to fix",
			domain.ErrEmbeddingService, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the embedding service selected by settings.
// A positive RequestsPerSecond wraps the service in a rate limiter.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings are nil", domain.ErrInvalidInput)
	}
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key", domain.ErrInvalidInput, settings.Provider)
	}

	svc, err := createProvider(settings)
	if err != nil {
		return nil, err
	}

	if settings.RequestsPerSecond > 0 {
		limiter := NewRateLimiter(RateLimitConfig{
			RequestsPerSecond: settings.RequestsPerSecond,
			BurstSize:         settings.Burst,
		})
		return WithRateLimit(svc, limiter), nil
	}
	return svc, nil
}

func createProvider(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderGemini:
		return gemini.NewEmbeddingService(gemini.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderHugot:
		return hugotembed.NewEmbeddingService(hugotembed.Config{
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}
