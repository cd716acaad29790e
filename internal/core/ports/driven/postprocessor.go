package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// PostProcessor turns a page into chunks.
// PostProcessors are chained in a pipeline.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a page and returns chunks.
	// The first processor receives nil chunks and creates them; later
	// processors receive and may refine the chunks.
	Process(ctx context.Context, page *domain.PageRecord, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Split runs every non-empty page through all processors in order and
	// returns the chunks in page order.
	Split(ctx context.Context, pages []domain.PageRecord) ([]domain.Chunk, error)
}
