// Package chunker provides a recursive separator text splitter.
package chunker

import (
	"context"
	"fmt"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// DefaultChunkSize is the default maximum number of runes per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = domain.DefaultOverlap

// separators in priority order: paragraph, line, sentence end, word.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(" "),
}

// chunkNamespace seeds deterministic chunk IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docrag/chunk"))

// Processor splits page text into overlapping chunks, preferring to break
// at paragraph, line, sentence and word boundaries in that order.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in runes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the minimum overlap between adjacent chunks in runes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the effective maximum chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the effective overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits the page text into chunks.
// Input chunks are ignored; this processor creates new chunks from the page.
func (p *Processor) Process(_ context.Context, page *domain.PageRecord, _ []domain.Chunk) ([]domain.Chunk, error) {
	if page == nil {
		return nil, fmt.Errorf("%w: page is nil", domain.ErrInvalidInput)
	}
	if !page.HasText() {
		return nil, nil
	}

	text := []rune(page.Text)
	spans := p.spans(text)

	chunks := make([]domain.Chunk, 0, len(spans))
	for _, sp := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(page.Source, page.Page, sp.start),
			Content:    string(text[sp.start:sp.end]),
			Source:     page.Source,
			Page:       page.Page,
			TotalPages: page.TotalPages,
			Start:      sp.start,
			Method:     page.Method,
			Metadata:   make(map[string]any),
		})
	}
	return chunks, nil
}

type span struct {
	start, end int
}

// spans computes the chunk windows over text as rune offsets.
func (p *Processor) spans(text []rune) []span {
	var out []span
	n := len(text)
	start := 0
	for start < n && unicode.IsSpace(text[start]) {
		start++
	}

	for start < n {
		limit := start + p.chunkSize
		if limit >= n {
			return append(out, span{start: start, end: n})
		}

		end := p.breakPoint(text, start, limit)
		out = append(out, span{start: start, end: end})

		next := end - p.overlap
		for next > start && !isWordStart(text, next) {
			next--
		}
		if next <= start {
			next = end - p.overlap
		}
		start = next
	}
	return out
}

func isWordStart(text []rune, i int) bool {
	return unicode.IsSpace(text[i-1]) && !unicode.IsSpace(text[i])
}

// breakPoint returns the end of the window beginning at start: just after the
// last occurrence of the highest-priority separator that advances further
// than the overlap, or limit when no separator qualifies.
func (p *Processor) breakPoint(text []rune, start, limit int) int {
	minEnd := start + p.overlap + 1
	for _, sep := range separators {
		for i := limit - len(sep); i >= start; i-- {
			end := i + len(sep)
			if end < minEnd {
				break
			}
			if hasPrefix(text[i:], sep) {
				return end
			}
		}
	}
	return limit
}

func hasPrefix(text, prefix []rune) bool {
	if len(text) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if text[i] != r {
			return false
		}
	}
	return true
}

// chunkID derives a stable ID from the chunk's position so re-ingesting the
// same corpus yields the same IDs.
func chunkID(source string, page, start int) string {
	name := fmt.Sprintf("%s|%d|%d", source, page, start)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}
