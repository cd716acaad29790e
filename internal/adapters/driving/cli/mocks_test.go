package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	getErr      error
	validateErr error
	pingErr     error

	savedProvider domain.AIProvider
	savedModel    string
	savedKey      string
	savedBackend  domain.StoreBackend
	savedLocation string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.savedProvider, m.savedModel, m.savedKey = provider, model, apiKey
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetStoreBackend(backend domain.StoreBackend, location string) error {
	m.savedBackend, m.savedLocation = backend, location
	m.settings.Store.Backend = backend
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }

// mockIngestionService implements driving.IngestionService for testing.
type mockIngestionService struct {
	report    *domain.IngestReport
	ingestErr error
	added     []domain.ExternalChunk
	addErr    error
	root      string
	watched   bool
	debounce  time.Duration
	watchRuns []*domain.IngestReport
}

func (m *mockIngestionService) IngestDirectory(_ context.Context, root string) (*domain.IngestReport, error) {
	m.root = root
	return m.report, m.ingestErr
}

func (m *mockIngestionService) AddExternalChunks(_ context.Context, chunks []domain.ExternalChunk) (int, error) {
	if m.addErr != nil {
		return 0, m.addErr
	}
	m.added = chunks
	return len(chunks), nil
}

func (m *mockIngestionService) Watch(
	_ context.Context,
	_ string,
	debounce time.Duration,
	onRun func(*domain.IngestReport, error),
) error {
	m.watched = true
	m.debounce = debounce
	for _, r := range m.watchRuns {
		onRun(r, nil)
	}
	return nil
}

// mockRetrievalService implements driving.RetrievalService for testing.
type mockRetrievalService struct {
	results  []domain.QueryResult
	err      error
	stats    driven.IndexStats
	built    bool
	lastText string
	lastK    int
}

func (m *mockRetrievalService) Query(_ context.Context, text string, k int) ([]domain.QueryResult, error) {
	m.lastText, m.lastK = text, k
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockRetrievalService) Stats(_ context.Context) (driven.IndexStats, bool, error) {
	return m.stats, m.built, m.err
}

type testServices struct {
	settings  *mockSettingsService
	ingestion *mockIngestionService
	retrieval *mockRetrievalService
}

// setupTestServices installs mocks for every service and resets command
// flags when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		settings:  newMockSettingsService(),
		ingestion: &mockIngestionService{},
		retrieval: &mockRetrievalService{},
	}
	settingsService = ts.settings
	ingestionService = ts.ingestion
	retrievalService = ts.retrieval

	t.Cleanup(func() {
		settingsService = nil
		ingestionService = nil
		retrievalService = nil
		queryK, queryJSON = 0, false
		ingestWatch, ingestJSON = false, false
		ingestDebounce = 2 * time.Second
		ingestSource = sourceFilesystem
		settingsRaw = false
	})
	return ts
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
