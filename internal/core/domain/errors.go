package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider, backend or processor name.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline Errors.

	// ErrExtractionFailure indicates every extraction strategy failed for a file.
	// It is recorded per file and never aborts a batch.
	ErrExtractionFailure = errors.New("extraction failed")

	// ErrEmptyBatch indicates an ingestion run produced no chunks.
	// The existing store is left untouched.
	ErrEmptyBatch = errors.New("no chunks produced")

	// ErrStoreUnavailable indicates the persisted vector store does not exist yet.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmbeddingService indicates the embedding backend failed or returned malformed output.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrEmbeddingMismatch indicates a model other than the one the store was built with.
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")

	// ErrRateLimited indicates the embedding API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
