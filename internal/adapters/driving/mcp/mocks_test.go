package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.QueryResult
	stats   driven.IndexStats
	built   bool
	err     error

	lastQuery string
	lastK     int
}

func (m *mockRetrievalService) Query(_ context.Context, text string, k int) ([]domain.QueryResult, error) {
	m.lastQuery = text
	m.lastK = k
	return m.results, m.err
}

func (m *mockRetrievalService) Stats(_ context.Context) (driven.IndexStats, bool, error) {
	return m.stats, m.built, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	added []domain.ExternalChunk
	err   error
}

func (m *mockIngestionService) IngestDirectory(_ context.Context, root string) (*domain.IngestReport, error) {
	return &domain.IngestReport{Root: root}, m.err
}

func (m *mockIngestionService) AddExternalChunks(_ context.Context, chunks []domain.ExternalChunk) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.added = append(m.added, chunks...)
	return len(chunks), nil
}

func (m *mockIngestionService) Watch(
	_ context.Context,
	_ string,
	_ time.Duration,
	_ func(*domain.IngestReport, error),
) error {
	return m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return m.err }

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetStoreBackend(_ domain.StoreBackend, _ string) error { return m.err }

func (m *mockSettingsService) Validate() error { return m.err }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.err }
