package domain

const unknownDescription = "Unknown"

// StoreBackend identifies the vector store implementation.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendSQLite persists vectors in a local SQLite file.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendPgvector persists vectors in Postgres with the pgvector extension.
	StoreBackendPgvector StoreBackend = "pgvector"

	// StoreBackendMemory keeps vectors in process memory only.
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendPgvector, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreBackendSQLite:
		return "SQLite (local file)"
	case StoreBackendPgvector:
		return "Postgres + pgvector"
	case StoreBackendMemory:
		return "In-memory (not persisted)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an embedding provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderHugot runs a sentence-transformer model in process.
	AIProviderHugot AIProvider = "hugot"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI, AIProviderGemini, AIProviderHugot:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// IsLocal returns true if this provider runs without a cloud API.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing || p == AIProviderHugot
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (offline, built in)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderHugot:
		return "Hugot (local ONNX model)"
	default:
		return unknownDescription
	}
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	// Backend selects the store implementation.
	Backend StoreBackend

	// Path is the directory holding the SQLite store.
	Path string

	// DSN is the Postgres connection string for the pgvector backend.
	DSN string

	// Table is the pgvector table name.
	Table string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name (or model directory for hugot).
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Dimensions overrides the model's default vector size.
	Dimensions int

	// BatchSize is the number of texts sent per embedding request.
	BatchSize int

	// RequestsPerSecond limits embedding calls; zero disables limiting.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	Burst int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkerSettings holds text splitting configuration.
type ChunkerSettings struct {
	// ChunkSize is the maximum chunk length in runes.
	ChunkSize int

	// Overlap is the minimum shared runes between adjacent chunks.
	Overlap int
}

// IngestSettings holds extraction configuration.
type IngestSettings struct {
	// Workers bounds the number of files extracted concurrently.
	Workers int

	// OCRLanguage is the tesseract language code.
	OCRLanguage string

	// OCRDPI is the rasterisation resolution for OCR.
	OCRDPI int
}

// RetrievalSettings holds query configuration.
type RetrievalSettings struct {
	// TopK is the default number of results.
	TopK int

	// MinScore drops results with a lower relevance score.
	MinScore float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Store     StoreSettings
	Embedding EmbeddingSettings
	Chunker   ChunkerSettings
	Ingest    IngestSettings
	Retrieval RetrievalSettings
}

// Default values.
const (
	DefaultChunkSize   = 300
	DefaultOverlap     = 100
	DefaultBatchSize   = 32
	DefaultWorkers     = 4
	DefaultOCRLanguage = "eng"
	DefaultOCRDPI      = 300
	DefaultTable       = "docrag_chunks"
)

// DefaultAppSettings returns settings with sensible defaults.
// The embedding provider defaults to the offline hashing embedder so the
// pipeline works without credentials.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Store: StoreSettings{
			Backend: StoreBackendSQLite,
			Table:   DefaultTable,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderHashing,
			Model:     DefaultEmbeddingModels()[AIProviderHashing],
			BatchSize: DefaultBatchSize,
			Burst:     1,
		},
		Chunker: ChunkerSettings{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultOverlap,
		},
		Ingest: IngestSettings{
			Workers:     DefaultWorkers,
			OCRLanguage: DefaultOCRLanguage,
			OCRDPI:      DefaultOCRDPI,
		},
		Retrieval: RetrievalSettings{
			TopK: DefaultTopK,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
		AIProviderHugot,
	}
}

// AllStoreBackends returns all available store backends.
func AllStoreBackends() []StoreBackend {
	return []StoreBackend{
		StoreBackendSQLite,
		StoreBackendPgvector,
		StoreBackendMemory,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-v1",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderGemini:  "text-embedding-004",
		AIProviderHugot:   "sentence-transformers/all-MiniLM-L6-v2",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
		// Sentence transformers
		"sentence-transformers/all-MiniLM-L6-v2": 384,
		// Built in
		"hashing-v1": 512,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor builds the chunking pipeline configuration from settings.
func PipelineConfigFor(s ChunkerSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": s.ChunkSize,
				"overlap":    s.Overlap,
			},
		},
	}
}
