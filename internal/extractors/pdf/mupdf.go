package pdf

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.ExtractionStrategy = (*PermissiveParser)(nil)

// PermissiveParser uses MuPDF, which repairs broken cross-reference tables
// and truncated streams that stricter parsers reject.
type PermissiveParser struct {
	runner CommandRunner
}

// NewPermissiveParser creates a MuPDF-backed parser.
func NewPermissiveParser(runner CommandRunner) *PermissiveParser {
	return &PermissiveParser{runner: runner}
}

// Name returns the strategy name.
func (p *PermissiveParser) Name() string { return "mutool" }

// Method returns the extraction method recorded on pages.
func (p *PermissiveParser) Method() domain.ExtractionMethod { return domain.MethodPermissive }

// Available checks mutool is installed.
func (p *PermissiveParser) Available() error { return requireTools("mutool") }

// ExtractPages renders every page to text; pages are separated by form feeds.
func (p *PermissiveParser) ExtractPages(ctx context.Context, doc domain.SourceDocument) ([]domain.PageRecord, error) {
	var pages []domain.PageRecord
	err := withFile(doc, func(path string) error {
		out, err := p.runner.Run(ctx, "mutool", "draw", "-q", "-F", "txt", "-o", "-", path)
		if err != nil {
			return fmt.Errorf("mutool failed: %w", err)
		}
		pages = splitPages(doc.Path, string(out), p.Method())
		return nil
	})
	return pages, err
}
