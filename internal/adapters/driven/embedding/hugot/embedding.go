// Package hugot provides an embedding service that runs a sentence
// transformer in process with the pure-Go hugot backend.
package hugot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultDimensions = 384
	onnxFile          = "onnx/model.onnx"
)

var errSessionClosed = fmt.Errorf("%w: hugot: session closed", domain.ErrEmbeddingService)

// Config holds configuration for the hugot embedding service.
type Config struct {
	// Model is a Hugging Face model name or a local model directory.
	Model string

	// ModelDir caches downloaded models (default: ~/.docrag/models).
	ModelDir string

	// Dimensions is the expected vector size.
	Dimensions int
}

// EmbeddingService generates embeddings with a local ONNX model.
type EmbeddingService struct {
	mu         sync.Mutex
	embed      func(texts []string) ([][]float32, error)
	destroy    func() error
	model      string
	dimensions int
}

// NewEmbeddingService prepares the model, downloading it on first use, and
// starts a hugot session.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	modelPath, err := prepareModel(cfg.Model, cfg.ModelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "docrag-embedder",
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	embed := func(texts []string) ([][]float32, error) {
		result, err := pipeline.RunPipeline(texts)
		if err != nil {
			return nil, err
		}
		return result.Embeddings, nil
	}

	return newWithFunc(cfg.Model, cfg.Dimensions, embed, session.Destroy), nil
}

func newWithFunc(model string, dimensions int, embed func([]string) ([][]float32, error), destroy func() error) *EmbeddingService {
	return &EmbeddingService{
		embed:      embed,
		destroy:    destroy,
		model:      model,
		dimensions: dimensions,
	}
}

// prepareModel returns a local model directory, downloading the model when
// name is not already a directory on disk.
func prepareModel(name, modelDir string) (string, error) {
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		return name, nil
	}

	if modelDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		modelDir = filepath.Join(home, ".docrag", "models")
	}

	modelPath := filepath.Join(modelDir, strings.ReplaceAll(name, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	}

	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	logger.Info("downloading embedding model %s to %s", name, modelDir)
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = onnxFile
	downloaded, err := hugot.DownloadModel(name, modelDir, opts)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloaded, nil
}

// EmbedDocuments embeds all texts in one pipeline run.
func (s *EmbeddingService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.embed == nil {
		return nil, errSessionClosed
	}

	embeddings, err := s.embed(texts)
	if err != nil {
		return nil, fmt.Errorf("%w: hugot: %w", domain.ErrEmbeddingService, err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: hugot: got %d embeddings for %d inputs",
			domain.ErrEmbeddingService, len(embeddings), len(texts))
	}
	return embeddings, nil
}

// EmbedQuery embeds a query the same way as a document.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model name or directory.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping succeeds once the session is running.
func (s *EmbeddingService) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.embed == nil {
		return errSessionClosed
	}
	return nil
}

// Close destroys the hugot session.
func (s *EmbeddingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroy == nil {
		return nil
	}
	err := s.destroy()
	s.destroy = nil
	s.embed = nil
	return err
}
