package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// IngestionService builds and extends the vector store.
type IngestionService interface {
	// IngestDirectory extracts every PDF under root, chunks and embeds the
	// pages, and atomically replaces the store. Per-file failures are
	// reported, not returned. Returns domain.ErrEmptyBatch, leaving the
	// store untouched, when nothing was extracted.
	IngestDirectory(ctx context.Context, root string) (*domain.IngestReport, error)

	// AddExternalChunks embeds caller-supplied chunks and appends them to
	// an existing store. The whole batch is rejected with
	// domain.ErrInvalidInput if any item has blank content.
	AddExternalChunks(ctx context.Context, chunks []domain.ExternalChunk) (int, error)

	// Watch re-runs IngestDirectory whenever PDFs under root change.
	// Changes arriving within debounce of each other trigger one run.
	// Blocks until ctx is cancelled.
	Watch(ctx context.Context, root string, debounce time.Duration, onRun func(*domain.IngestReport, error)) error
}
