package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage"
	"github.com/custodia-labs/docrag/internal/connectors/database"
	"github.com/custodia-labs/docrag/internal/connectors/filesystem"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/extractors/pdf"
	"github.com/custodia-labs/docrag/internal/logger"
	"github.com/custodia-labs/docrag/internal/postprocessors"
)

// Source kinds accepted by "docrag ingest --source".
const (
	sourceFilesystem = "filesystem"
	sourceDatabase   = "database"
)

// app owns the adapters behind the CLI services for one invocation.
type app struct {
	dir      string
	settings *services.SettingsService

	// sourceKind selects the FileSource built by buildPipeline.
	sourceKind string

	embedder driven.EmbeddingService
	index    driven.VectorIndex
	source   driven.FileSource

	ingestion *services.IngestionService
	retrieval *services.RetrievalService
}

// newApp opens the config store in dir, or ~/.docrag when dir is empty.
func newApp(dir string) (*app, error) {
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	logger.Debug("config: %s", store.Path())

	return &app{
		dir:        dir,
		settings:   services.NewSettingsService(store, ai.NewConfigValidator()),
		sourceKind: sourceFilesystem,
	}, nil
}

// buildPipeline wires the embedder, store, extractor and chunker from the
// saved settings.
func (a *app) buildPipeline(ctx context.Context) error {
	cfg, err := a.settings.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := services.ValidateSettings(cfg); err != nil {
		return err
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, &cfg.Embedding)
	if err != nil {
		return err
	}
	a.embedder = embedder

	index, err := storage.NewVectorIndex(ctx, cfg.Store, a.dir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.index = index

	splitter, err := postprocessors.NewDefaultPipeline(cfg.Chunker)
	if err != nil {
		return err
	}

	switch a.sourceKind {
	case sourceFilesystem, "":
		a.source = filesystem.New()
	case sourceDatabase:
		a.source = database.New(cfg.Store.DSN)
	default:
		return fmt.Errorf("%w: source %q", domain.ErrUnsupportedType, a.sourceKind)
	}

	extractor := pdf.New(
		pdf.WithOCRLanguage(cfg.Ingest.OCRLanguage),
		pdf.WithOCRDPI(cfg.Ingest.OCRDPI),
	)

	logger.Debug("pipeline: %s/%s, %s store, chunk %d/%d",
		cfg.Embedding.Provider, embedder.ModelName(), cfg.Store.Backend,
		cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)

	a.ingestion = services.NewIngestionService(a.source, extractor, splitter, embedder, index,
		services.WithWorkers(cfg.Ingest.Workers),
		services.WithBatchSize(cfg.Embedding.BatchSize),
	)
	a.retrieval = services.NewRetrievalService(embedder, index,
		services.WithDefaultK(cfg.Retrieval.TopK),
		services.WithMinScore(cfg.Retrieval.MinScore),
	)
	return nil
}

// Close releases every adapter that was opened.
func (a *app) Close() error {
	var errs []error
	if a.source != nil {
		errs = append(errs, a.source.Close())
	}
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	return errors.Join(errs...)
}

// loadSettings returns the current settings or the defaults when the
// settings service fails.
func loadSettings() *domain.AppSettings {
	cfg, err := settingsService.Get()
	if err != nil || cfg == nil {
		logger.Warn("could not load settings, using defaults: %v", err)
		defaults := settingsService.GetDefaults()
		return &defaults
	}
	return cfg
}
