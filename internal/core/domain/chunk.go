package domain

import "strings"

// Metadata keys shared by chunks and query results.
const (
	MetaSource     = "source"
	MetaPage       = "page"
	MetaTotalPages = "total_pages"
	MetaStartIndex = "start_index"
	MetaMethod     = "method"
	MetaChunkID    = "chunk_id"
)

// Chunk is a contiguous slice of page text, or caller-supplied content,
// that is embedded and stored as one vector.
type Chunk struct {
	// ID is deterministic for chunks cut from pages.
	ID string

	// Content is the chunk text.
	Content string

	// Source is the path of the originating file, if any.
	Source string

	// Page is the 1-based page number, or 0 when unknown.
	Page int

	// TotalPages is the page count of the originating file.
	TotalPages int

	// Start is the rune offset of Content within the page text.
	Start int

	// Method is the extraction strategy of the originating page.
	Method ExtractionMethod

	// Metadata holds extra attributes carried through to query results.
	Metadata map[string]any
}

// End returns the rune offset one past the last rune of Content.
func (c Chunk) End() int {
	return c.Start + len([]rune(c.Content))
}

// ResultMetadata merges the chunk's fixed attributes over its free-form
// metadata. Zero-valued attributes are omitted.
func (c Chunk) ResultMetadata() map[string]any {
	out := make(map[string]any, len(c.Metadata)+6)
	for k, v := range c.Metadata {
		out[k] = v
	}
	if c.ID != "" {
		out[MetaChunkID] = c.ID
	}
	if c.Source != "" {
		out[MetaSource] = c.Source
	}
	if c.Page > 0 {
		out[MetaPage] = c.Page
		out[MetaStartIndex] = c.Start
	}
	if c.TotalPages > 0 {
		out[MetaTotalPages] = c.TotalPages
	}
	if c.Method != "" {
		out[MetaMethod] = c.Method.String()
	}
	return out
}

// ExternalChunk is pre-chunked content supplied by a caller, bypassing extraction.
type ExternalChunk struct {
	// Content is the text to embed. Must be non-blank.
	Content string `json:"content"`

	// Metadata is carried through to query results.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Valid reports whether the chunk has non-blank content.
func (c ExternalChunk) Valid() bool {
	return strings.TrimSpace(c.Content) != ""
}
