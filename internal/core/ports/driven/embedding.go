package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Documents and queries are embedded through separate calls because some
// providers tune the vector to the task.
//
// Implementations include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Gemini (text-embedding-004)
//   - Hugot (local sentence transformers)
//   - Hashing (offline, deterministic)
type EmbeddingService interface {
	// EmbedDocuments generates one embedding per text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates the embedding for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	// Vectors from different models are never mixed in one store.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
