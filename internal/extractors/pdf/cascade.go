package pdf

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.Extractor = (*Cascade)(nil)

// Cascade tries each strategy in order and returns the pages of the first
// one that yields any non-blank text.
type Cascade struct {
	strategies []driven.ExtractionStrategy
}

// Option configures the default cascade.
type Option func(*options)

type options struct {
	runner      CommandRunner
	ocrLanguage string
	ocrDPI      int
	strategies  []driven.ExtractionStrategy
}

// WithRunner sets the command runner used by shell-based strategies.
func WithRunner(r CommandRunner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithOCRLanguage sets the tesseract language code.
func WithOCRLanguage(lang string) Option {
	return func(o *options) {
		o.ocrLanguage = lang
	}
}

// WithOCRDPI sets the rasterisation resolution for OCR.
func WithOCRDPI(dpi int) Option {
	return func(o *options) {
		o.ocrDPI = dpi
	}
}

// WithStrategies replaces the default strategy list.
func WithStrategies(s ...driven.ExtractionStrategy) Option {
	return func(o *options) {
		o.strategies = s
	}
}

// New creates the default five-strategy cascade.
func New(opts ...Option) *Cascade {
	o := &options{
		runner:      execRunner{},
		ocrLanguage: domain.DefaultOCRLanguage,
		ocrDPI:      domain.DefaultOCRDPI,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.strategies != nil {
		return NewCascade(o.strategies...)
	}
	return NewCascade(
		NewDirectTextParser(o.runner),
		NewAlternateParser(),
		NewPermissiveParser(o.runner),
		NewStructuredParser(o.runner),
		NewOCRExtractor(o.runner, o.ocrLanguage, o.ocrDPI),
	)
}

// NewCascade creates a cascade over the given strategies, tried in order.
func NewCascade(strategies ...driven.ExtractionStrategy) *Cascade {
	return &Cascade{strategies: strategies}
}

// Strategies returns the strategy names in cascade order.
func (c *Cascade) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract returns the non-empty pages of the document, or nothing when
// every strategy fails.
func (c *Cascade) Extract(ctx context.Context, doc domain.SourceDocument) []domain.PageRecord {
	pages, _ := c.ExtractWithTrail(ctx, doc)
	return pages
}

// ExtractWithTrail runs the cascade and records each attempt.
// Strategy errors and panics never escape; they end up in the trail.
func (c *Cascade) ExtractWithTrail(
	ctx context.Context,
	doc domain.SourceDocument,
) ([]domain.PageRecord, []domain.StrategyAttempt) {
	attempts := make([]domain.StrategyAttempt, 0, len(c.strategies))

	for _, s := range c.strategies {
		if ctx.Err() != nil {
			break
		}

		attempt := domain.StrategyAttempt{Strategy: s.Name()}
		if err := s.Available(); err != nil {
			attempt.Error = err.Error()
			attempts = append(attempts, attempt)
			logger.Debug("%s: skipping %s: %v", doc.Path, s.Name(), err)
			continue
		}

		pages, err := runStrategy(ctx, s, doc)
		if err != nil {
			attempt.Error = err.Error()
			attempts = append(attempts, attempt)
			logger.Debug("%s: %s failed: %v", doc.Path, s.Name(), err)
			continue
		}

		pages = domain.NonEmptyPages(pages)
		attempt.Pages = len(pages)
		attempts = append(attempts, attempt)
		if len(pages) > 0 {
			logger.Debug("%s: %s extracted %d pages", doc.Path, s.Name(), len(pages))
			return pages, attempts
		}
		logger.Debug("%s: %s found no text", doc.Path, s.Name())
	}

	return nil, attempts
}

func runStrategy(
	ctx context.Context,
	s driven.ExtractionStrategy,
	doc domain.SourceDocument,
) (pages []domain.PageRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, &panicError{strategy: s.Name(), value: r}
		}
	}()
	return s.ExtractPages(ctx, doc)
}
