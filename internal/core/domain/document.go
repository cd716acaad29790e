package domain

import (
	"strings"
	"time"
)

// SourceDocument is one PDF file handed to the extractor.
// Path identifies the file within its FileSource.
type SourceDocument struct {
	// Path is the file's location within its source.
	Path string

	// Name is the base file name.
	Name string

	// Content is the raw file bytes.
	Content []byte

	// Size is the file size in bytes.
	Size int64

	// ModifiedAt is the last modification time reported by the source.
	ModifiedAt time.Time
}

// ExtractionMethod records which strategy produced a page.
type ExtractionMethod string

// Extraction methods, in cascade order.
const (
	// MethodDirect is native text extraction.
	MethodDirect ExtractionMethod = "direct"

	// MethodAlternate is the pure-Go parser.
	MethodAlternate ExtractionMethod = "alternate"

	// MethodPermissive is the lenient MuPDF parser.
	MethodPermissive ExtractionMethod = "permissive"

	// MethodStructured is layout-preserving extraction.
	MethodStructured ExtractionMethod = "structured"

	// MethodOCR is optical character recognition of rendered pages.
	MethodOCR ExtractionMethod = "OCR"
)

// String returns the string representation.
func (m ExtractionMethod) String() string {
	return string(m)
}

// PageRecord is the text of one PDF page.
type PageRecord struct {
	// Text is the extracted page text.
	Text string

	// Source is the path of the originating file.
	Source string

	// Page is the 1-based page number.
	Page int

	// TotalPages is the page count of the originating file.
	TotalPages int

	// Method is the strategy that produced the text.
	Method ExtractionMethod
}

// HasText reports whether the page carries any non-whitespace text.
func (p PageRecord) HasText() bool {
	return strings.TrimSpace(p.Text) != ""
}

// NonEmptyPages drops pages without text, preserving order.
func NonEmptyPages(pages []PageRecord) []PageRecord {
	out := make([]PageRecord, 0, len(pages))
	for i := range pages {
		if pages[i].HasText() {
			out = append(out, pages[i])
		}
	}
	return out
}
