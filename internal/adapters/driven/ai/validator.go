package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// probeText is embedded to confirm the provider honours a dimensions override.
const probeText = "docrag configuration check"

// ConfigValidator checks embedding settings against the live provider.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator using the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// ValidateEmbedding pings the configured provider. When the settings pin a
// vector size, a probe text is embedded and its length compared.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if config != nil && config.Dimensions < 0 {
		return fmt.Errorf("%w: dimensions must not be negative", domain.ErrInvalidInput)
	}

	svc, err := CreateEmbeddingService(config)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", config.Provider, err)
	}
	if config.Dimensions == 0 {
		return nil
	}

	vec, err := svc.EmbedQuery(ctx, probeText)
	if err != nil {
		return fmt.Errorf("probe embedding: %w", err)
	}
	if len(vec) != config.Dimensions {
		return fmt.Errorf("%w: %s returned %d dimensions, settings ask for %d",
			domain.ErrInvalidInput, svc.ModelName(), len(vec), config.Dimensions)
	}
	return nil
}
