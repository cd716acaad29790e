package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService turns a directory of PDFs into a vector store and
// appends caller-supplied chunks to it.
type IngestionService struct {
	source    driven.FileSource
	extractor driven.Extractor
	splitter  driven.PostProcessorPipeline
	embedder  driven.EmbeddingService
	index     driven.VectorIndex

	workers   int
	batchSize int

	// writeMu serialises Rebuild and Add against the index.
	writeMu sync.Mutex
}

// IngestionOption configures an IngestionService.
type IngestionOption func(*IngestionService)

// WithWorkers bounds how many files are extracted at once.
func WithWorkers(n int) IngestionOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBatchSize sets how many chunks are sent per embedding request.
func WithBatchSize(n int) IngestionOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(
	source driven.FileSource,
	extractor driven.Extractor,
	splitter driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	opts ...IngestionOption,
) *IngestionService {
	s := &IngestionService{
		source:    source,
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		index:     index,
		workers:   domain.DefaultWorkers,
		batchSize: domain.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// extraction is the outcome of one file.
type extraction struct {
	report domain.FileReport
	pages  []domain.PageRecord
}

// IngestDirectory extracts every PDF under root and replaces the store.
// The report is returned even when the run fails after extraction.
func (s *IngestionService) IngestDirectory(ctx context.Context, root string) (*domain.IngestReport, error) {
	start := time.Now()
	root = resolveRoot(s.source, root)
	report := &domain.IngestReport{Root: root}

	logger.Section("Ingest " + root)

	files, err := s.source.List(ctx, root)
	if err != nil {
		return report, fmt.Errorf("discover %s: %w", root, err)
	}
	logger.Info("found %d PDF files", len(files))

	results := make([]extraction, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range files {
		g.Go(func() error {
			results[i] = s.extractFile(gctx, root, files[i])
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return report, err
	}

	var pages []domain.PageRecord
	for i := range results {
		report.Files = append(report.Files, results[i].report)
		pages = append(pages, results[i].pages...)
	}
	report.Pages = len(pages)

	chunks, err := s.splitter.Split(ctx, pages)
	if err != nil {
		return report, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		report.Duration = time.Since(start)
		return report, fmt.Errorf("ingest %s: %w", root, domain.ErrEmptyBatch)
	}

	vectors, err := embedDocuments(ctx, s.embedder, chunkTexts(chunks), s.batchSize)
	if err != nil {
		return report, err
	}

	s.writeMu.Lock()
	err = s.index.Rebuild(ctx, chunks, vectors, s.embedder.ModelName())
	s.writeMu.Unlock()
	if err != nil {
		return report, fmt.Errorf("rebuild store: %w", err)
	}

	report.Chunks = len(chunks)
	report.Duration = time.Since(start)
	logReport(report)
	return report, nil
}

// extractFile reads and extracts one file. Failures are recorded on the
// report and never returned.
func (s *IngestionService) extractFile(ctx context.Context, root string, file domain.FileInfo) extraction {
	result := extraction{report: domain.FileReport{Path: file.Path}}

	doc, err := s.source.Read(ctx, file.Path)
	if err != nil {
		result.report.Fail(fmt.Errorf("read %s: %w", file.Path, err))
		logger.Warn("%v", result.report.Err)
		return result
	}

	pages, trail := s.extractor.ExtractWithTrail(ctx, *doc)
	result.report.Attempts = trail
	if len(pages) == 0 {
		result.report.Fail(fmt.Errorf("extract %s: %w", file.Path, domain.ErrExtractionFailure))
		logger.Warn("no strategy could read %s", file.Path)
		return result
	}

	source := relativeSource(root, file.Path)
	for i := range pages {
		pages[i].Source = source
	}
	result.pages = pages
	result.report.Pages = len(pages)
	result.report.Method = pages[0].Method
	logger.Debug("%s: %d pages via %s", file.Path, len(pages), pages[0].Method)
	return result
}

// AddExternalChunks validates, embeds and appends caller-supplied chunks.
// An empty batch is a no-op.
func (s *IngestionService) AddExternalChunks(ctx context.Context, items []domain.ExternalChunk) (int, error) {
	for i, item := range items {
		if !item.Valid() {
			return 0, fmt.Errorf("%w: chunk %d has empty content", domain.ErrInvalidInput, i)
		}
	}
	if len(items) == 0 {
		return 0, nil
	}

	exists, err := s.index.Exists(ctx)
	if err != nil {
		return 0, fmt.Errorf("check store: %w", err)
	}
	if !exists {
		return 0, domain.ErrStoreUnavailable
	}

	chunks := make([]domain.Chunk, len(items))
	for i, item := range items {
		chunks[i] = externalChunk(item)
	}

	vectors, err := embedDocuments(ctx, s.embedder, chunkTexts(chunks), s.batchSize)
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	n, err := s.index.Add(ctx, chunks, vectors, s.embedder.ModelName())
	if err != nil {
		return 0, fmt.Errorf("add chunks: %w", err)
	}
	logger.Info("added %d external chunks", n)
	return n, nil
}

// Watch re-ingests root after PDFs change, once per quiet period.
func (s *IngestionService) Watch(
	ctx context.Context,
	root string,
	debounce time.Duration,
	onRun func(*domain.IngestReport, error),
) error {
	watchable, ok := s.source.(driven.WatchableSource)
	if !ok {
		return fmt.Errorf("watch %s source: %w", s.source.Type(), domain.ErrNotImplemented)
	}
	root = resolveRoot(s.source, root)

	changes, err := watchable.Watch(ctx, root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher stopped")
			}
			logger.Debug("%s %s", change.Type, change.Path)
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			report, err := s.IngestDirectory(ctx, root)
			if onRun != nil {
				onRun(report, err)
			}
		}
	}
}

// externalChunk maps the well-known metadata keys onto chunk fields and
// keeps the rest as metadata.
func externalChunk(item domain.ExternalChunk) domain.Chunk {
	c := domain.Chunk{
		ID:       uuid.NewString(),
		Content:  item.Content,
		Metadata: make(map[string]any, len(item.Metadata)),
	}
	for k, v := range item.Metadata {
		switch k {
		case domain.MetaSource:
			if s, ok := v.(string); ok {
				c.Source = s
				continue
			}
		case domain.MetaPage:
			if n, ok := toInt(v); ok {
				c.Page = n
				continue
			}
		case domain.MetaStartIndex:
			if n, ok := toInt(v); ok {
				c.Start = n
				continue
			}
		}
		c.Metadata[k] = v
	}
	return c
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, true
		}
	}
	return 0, false
}

func chunkTexts(chunks []domain.Chunk) []string {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	return texts
}

// resolveRoot puts root in the form the source lists files under, so chunk
// sources can be made relative to it.
func resolveRoot(source driven.FileSource, root string) string {
	if r, ok := source.(driven.RootResolver); ok {
		return r.ResolveRoot(root)
	}
	return root
}

// relativeSource names a file by its path below root, using forward slashes.
func relativeSource(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func logReport(r *domain.IngestReport) {
	failed := r.Failed()
	logger.Info("ingested %d files (%d failed), %d pages, %d chunks in %s",
		len(r.Files), len(failed), r.Pages, r.Chunks, r.Duration.Round(time.Millisecond))

	counts := r.MethodCounts()
	for _, m := range r.Methods() {
		logger.Info("  %-10s %d pages", m, counts[m])
	}
}
