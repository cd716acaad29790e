// Package postprocessors turns extracted pages into chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains multiple PostProcessors and runs them in order on each page.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs one page through all processors in order.
// The first processor receives nil chunks and should create them.
// Subsequent processors receive and may modify the chunks.
func (p *Pipeline) Process(ctx context.Context, page *domain.PageRecord) ([]domain.Chunk, error) {
	if page == nil {
		return nil, fmt.Errorf("%w: page is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk

	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, page, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return chunks, nil
}

// Split processes every page with text and concatenates the chunks in page order.
func (p *Pipeline) Split(ctx context.Context, pages []domain.PageRecord) ([]domain.Chunk, error) {
	var all []domain.Chunk
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !pages[i].HasText() {
			continue
		}
		chunks, err := p.Process(ctx, &pages[i])
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", pages[i].Source, pages[i].Page, err)
		}
		all = append(all, chunks...)
	}
	return all, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}
