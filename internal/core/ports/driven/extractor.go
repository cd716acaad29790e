package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Extractor turns a PDF document into page records.
// Implementations never fail on malformed input: a file nothing can read
// yields an empty slice.
type Extractor interface {
	// Extract returns the non-empty pages of the document.
	Extract(ctx context.Context, doc domain.SourceDocument) []domain.PageRecord

	// ExtractWithTrail returns the pages along with the outcome of every
	// strategy that was tried.
	ExtractWithTrail(ctx context.Context, doc domain.SourceDocument) ([]domain.PageRecord, []domain.StrategyAttempt)
}

// ExtractionStrategy is one way of reading text out of a PDF.
type ExtractionStrategy interface {
	// Name identifies the strategy in logs and reports.
	Name() string

	// Method is recorded on every page the strategy produces.
	Method() domain.ExtractionMethod

	// Available returns an error when a required external tool is missing.
	Available() error

	// ExtractPages reads every page of the document.
	// Pages may be returned with empty text; the caller filters them.
	ExtractPages(ctx context.Context, doc domain.SourceDocument) ([]domain.PageRecord, error)
}
