package driven

import "github.com/custodia-labs/docrag/internal/core/domain"

// AIConfigValidator validates embedding provider configurations.
// Implementations verify the configuration by contacting the provider.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	// Returns nil if the configuration is valid.
	ValidateEmbedding(config *domain.EmbeddingSettings) error
}
