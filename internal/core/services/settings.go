package services

import (
	"fmt"
	"os"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStoreBackend = "store.backend"
	keyStorePath    = "store.path"
	keyStoreDSN     = "store.dsn"
	keyStoreTable   = "store.table"

	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyEmbedBurst      = "embedding.burst"
	keyChunkSize       = "chunker.chunk_size"
	keyChunkOverlap    = "chunker.overlap"
	keyIngestWorkers   = "ingest.workers"
	keyOCRLanguage     = "ingest.ocr_language"
	keyOCRDPI          = "ingest.ocr_dpi"
	keyRetrievalTopK   = "retrieval.top_k"
	keyRetrievalMinScr = "retrieval.min_score"
)

// DefaultOllamaURL is used when the ollama provider has no base URL.
const DefaultOllamaURL = "http://localhost:11434"

// APIKeyEnv returns the environment variable consulted when no API key is
// configured for provider, or "" if the provider has none.
func APIKeyEnv(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case domain.AIProviderGemini:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// SettingsService maps the flat configuration keys to typed settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Missing keys take their
// defaults and a missing API key falls back to the provider's environment
// variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(defaults.Embedding.Provider)
	model := s.getString(keyEmbedModel, "")
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	settings := &domain.AppSettings{
		Store: domain.StoreSettings{
			Backend: s.getBackend(defaults.Store.Backend),
			Path:    s.configStore.GetString(keyStorePath),
			DSN:     s.configStore.GetString(keyStoreDSN),
			Table:   s.getString(keyStoreTable, defaults.Store.Table),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.apiKey(provider),
			Dimensions:        s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
			BatchSize:         s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
			Burst:             s.getInt(keyEmbedBurst, defaults.Embedding.Burst),
		},
		Chunker: domain.ChunkerSettings{
			ChunkSize: s.getInt(keyChunkSize, defaults.Chunker.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, defaults.Chunker.Overlap),
		},
		Ingest: domain.IngestSettings{
			Workers:     s.getInt(keyIngestWorkers, defaults.Ingest.Workers),
			OCRLanguage: s.getString(keyOCRLanguage, defaults.Ingest.OCRLanguage),
			OCRDPI:      s.getInt(keyOCRDPI, defaults.Ingest.OCRDPI),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:     s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
			MinScore: s.getFloat(keyRetrievalMinScr, defaults.Retrieval.MinScore),
		},
	}

	return settings, nil
}

// Save persists application settings. An API key that only came from the
// environment is not written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyStorePath, settings.Store.Path},
		{keyStoreDSN, settings.Store.DSN},
		{keyStoreTable, settings.Store.Table},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedBurst, settings.Embedding.Burst},
		{keyChunkSize, settings.Chunker.ChunkSize},
		{keyChunkOverlap, settings.Chunker.Overlap},
		{keyIngestWorkers, settings.Ingest.Workers},
		{keyOCRLanguage, settings.Ingest.OCRLanguage},
		{keyOCRDPI, settings.Ingest.OCRDPI},
		{keyRetrievalTopK, settings.Retrieval.TopK},
		{keyRetrievalMinScr, settings.Retrieval.MinScore},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	key := settings.Embedding.APIKey
	if key != "" && key != envAPIKey(settings.Embedding.Provider) {
		if err := s.configStore.Set(keyEmbedAPIKey, key); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return s.configStore.Save()
}

// SetEmbeddingProvider configures the embedding provider. An empty model
// selects the provider default. Cloud providers need an API key, either
// given here or present in the environment.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && envAPIKey(provider) == "" {
		return fmt.Errorf("%w: API key required for %s (or set %s)", domain.ErrInvalidInput, provider, APIKeyEnv(provider))
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	changed := settings.Embedding.Provider != provider
	settings.Embedding.Provider = provider

	switch {
	case model != "":
		settings.Embedding.Model = model
	case changed:
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	if changed {
		settings.Embedding.Dimensions = 0
		settings.Embedding.BaseURL = ""
	}
	if provider == domain.AIProviderOllama && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = DefaultOllamaURL
	}

	if apiKey != "" {
		settings.Embedding.APIKey = apiKey
	} else if changed {
		settings.Embedding.APIKey = ""
		if err := s.configStore.Set(keyEmbedAPIKey, ""); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return s.Save(settings)
}

// SetStoreBackend selects the vector store. location is the directory for
// sqlite and the DSN for pgvector; it is ignored for memory.
func (s *SettingsService) SetStoreBackend(backend domain.StoreBackend, location string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: store backend %q", domain.ErrUnsupportedType, backend)
	}
	if backend == domain.StoreBackendPgvector && location == "" {
		return fmt.Errorf("%w: pgvector needs a connection string", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Store.Backend = backend
	switch backend {
	case domain.StoreBackendSQLite:
		settings.Store.Path = location
	case domain.StoreBackendPgvector:
		settings.Store.DSN = location
	}

	return s.Save(settings)
}

// Validate checks that the current settings can be used.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return ValidateSettings(settings)
}

// ValidateSettings reports the first unusable value in settings.
func ValidateSettings(settings *domain.AppSettings) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...)
	}

	switch {
	case !settings.Store.Backend.IsValid():
		return invalid("unknown store backend %q", settings.Store.Backend)
	case settings.Store.Backend == domain.StoreBackendPgvector && settings.Store.DSN == "":
		return invalid("store.dsn is required for pgvector")
	case !settings.Embedding.Provider.IsValid():
		return invalid("unknown embedding provider %q", settings.Embedding.Provider)
	case !settings.Embedding.IsConfigured():
		return invalid("%s needs an API key (embedding.api_key or %s)",
			settings.Embedding.Provider, APIKeyEnv(settings.Embedding.Provider))
	case settings.Embedding.BatchSize < 1:
		return invalid("embedding.batch_size must be positive")
	case settings.Embedding.RequestsPerSecond < 0:
		return invalid("embedding.requests_per_second must not be negative")
	case settings.Chunker.ChunkSize < 1:
		return invalid("chunker.chunk_size must be positive")
	case settings.Chunker.Overlap < 0 || settings.Chunker.Overlap >= settings.Chunker.ChunkSize:
		return invalid("chunker.overlap must be in [0, chunk_size)")
	case settings.Ingest.Workers < 1:
		return invalid("ingest.workers must be positive")
	case settings.Ingest.OCRDPI < 1:
		return invalid("ingest.ocr_dpi must be positive")
	case settings.Retrieval.TopK < 1:
		return invalid("retrieval.top_k must be positive")
	case settings.Retrieval.MinScore < 0 || settings.Retrieval.MinScore > 1:
		return invalid("retrieval.min_score must be in [0, 1]")
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt returns defaultVal only when the key is absent, so an explicit
// zero (e.g. chunker.overlap = 0) is kept.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) apiKey(provider domain.AIProvider) string {
	if key := s.configStore.GetString(keyEmbedAPIKey); key != "" {
		return key
	}
	return envAPIKey(provider)
}

func envAPIKey(provider domain.AIProvider) string {
	name := APIKeyEnv(provider)
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
