package pdf

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var (
	_ driven.ExtractionStrategy = (*DirectTextParser)(nil)
	_ driven.ExtractionStrategy = (*StructuredParser)(nil)
)

// DirectTextParser reads the text layer with poppler's pdftotext.
type DirectTextParser struct {
	runner CommandRunner
}

// NewDirectTextParser creates a direct text parser.
func NewDirectTextParser(runner CommandRunner) *DirectTextParser {
	return &DirectTextParser{runner: runner}
}

// Name returns the strategy name.
func (p *DirectTextParser) Name() string { return "pdftotext" }

// Method returns the extraction method recorded on pages.
func (p *DirectTextParser) Method() domain.ExtractionMethod { return domain.MethodDirect }

// Available checks pdftotext is installed.
func (p *DirectTextParser) Available() error { return requireTools("pdftotext") }

// ExtractPages runs pdftotext and splits its output on form feeds.
func (p *DirectTextParser) ExtractPages(ctx context.Context, doc domain.SourceDocument) ([]domain.PageRecord, error) {
	return runPdftotext(ctx, p.runner, doc, p.Method())
}

// StructuredParser reads the text layer keeping the physical layout, which
// recovers tables and multi-column pages the plain reading order garbles.
type StructuredParser struct {
	runner CommandRunner
}

// NewStructuredParser creates a layout-preserving parser.
func NewStructuredParser(runner CommandRunner) *StructuredParser {
	return &StructuredParser{runner: runner}
}

// Name returns the strategy name.
func (p *StructuredParser) Name() string { return "pdftotext-layout" }

// Method returns the extraction method recorded on pages.
func (p *StructuredParser) Method() domain.ExtractionMethod { return domain.MethodStructured }

// Available checks pdftotext is installed.
func (p *StructuredParser) Available() error { return requireTools("pdftotext") }

// ExtractPages runs pdftotext -layout and splits its output on form feeds.
func (p *StructuredParser) ExtractPages(ctx context.Context, doc domain.SourceDocument) ([]domain.PageRecord, error) {
	return runPdftotext(ctx, p.runner, doc, p.Method(), "-layout")
}

func runPdftotext(
	ctx context.Context,
	runner CommandRunner,
	doc domain.SourceDocument,
	method domain.ExtractionMethod,
	extra ...string,
) ([]domain.PageRecord, error) {
	var pages []domain.PageRecord
	err := withFile(doc, func(path string) error {
		args := append([]string{"-enc", "UTF-8"}, extra...)
		args = append(args, path, "-")

		out, err := runner.Run(ctx, "pdftotext", args...)
		if err != nil {
			return fmt.Errorf("pdftotext failed: %w", err)
		}
		pages = splitPages(doc.Path, string(out), method)
		return nil
	})
	return pages, err
}
