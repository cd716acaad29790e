package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// withFile calls fn with a path to the document's bytes on disk. The
// document's own path is used when it exists; otherwise the bytes are
// spilled to a temporary file that is removed afterwards.
func withFile(doc domain.SourceDocument, fn func(path string) error) error {
	if doc.Path != "" {
		if info, err := os.Stat(doc.Path); err == nil && info.Mode().IsRegular() {
			return fn(doc.Path)
		}
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("%w: document has no content", domain.ErrInvalidInput)
	}

	f, err := os.CreateTemp("", "docrag-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(doc.Content); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return fn(f.Name())
}

// splitPages turns form-feed separated text into page records.
// A trailing form feed does not start a new page.
func splitPages(source, text string, method domain.ExtractionMethod) []domain.PageRecord {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	pages := make([]domain.PageRecord, len(parts))
	for i, part := range parts {
		pages[i] = domain.PageRecord{
			Text:       part,
			Source:     source,
			Page:       i + 1,
			TotalPages: len(parts),
			Method:     method,
		}
	}
	return pages
}
