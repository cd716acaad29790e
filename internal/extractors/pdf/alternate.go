package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.ExtractionStrategy = (*AlternateParser)(nil)

// AlternateParser decodes the PDF in process with a pure-Go parser.
// It needs no external tools, so it is always available.
type AlternateParser struct{}

// NewAlternateParser creates a pure-Go parser.
func NewAlternateParser() *AlternateParser {
	return &AlternateParser{}
}

// Name returns the strategy name.
func (p *AlternateParser) Name() string { return "go-pdf" }

// Method returns the extraction method recorded on pages.
func (p *AlternateParser) Method() domain.ExtractionMethod { return domain.MethodAlternate }

// Available always succeeds.
func (p *AlternateParser) Available() error { return nil }

// ExtractPages reads the plain text of every page.
// The decoder panics on some malformed inputs; panics are returned as errors.
func (p *AlternateParser) ExtractPages(ctx context.Context, doc domain.SourceDocument) (pages []domain.PageRecord, err error) {
	content := doc.Content
	if len(content) == 0 && doc.Path != "" {
		content, err = os.ReadFile(doc.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", doc.Path, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("go-pdf: malformed document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("go-pdf: open: %w", err)
	}

	total := reader.NumPage()
	pages = make([]domain.PageRecord, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("go-pdf: page %d: %w", i, err)
		}
		pages = append(pages, domain.PageRecord{
			Text:       text,
			Source:     doc.Path,
			Page:       i,
			TotalPages: total,
			Method:     p.Method(),
		})
	}
	return pages, nil
}
