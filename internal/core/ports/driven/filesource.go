package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// FileSource lists and reads the files an ingestion run consumes.
type FileSource interface {
	// Type returns the source kind (e.g., "filesystem").
	Type() string

	// List returns the PDF files under root in a stable order.
	List(ctx context.Context, root string) ([]domain.FileInfo, error)

	// Read returns the file's bytes.
	Read(ctx context.Context, path string) (*domain.SourceDocument, error)

	// Close releases resources.
	Close() error
}

// RootResolver is a FileSource that accepts roots in more than one form
// (such as file:// URIs) and can name the canonical form.
type RootResolver interface {
	// ResolveRoot returns root as the source itself would list it.
	ResolveRoot(root string) string
}

// WatchableSource is a FileSource that can report changes under a root.
type WatchableSource interface {
	FileSource

	// Watch emits a change for every PDF created, updated or deleted under
	// root. The channel closes when ctx is cancelled.
	Watch(ctx context.Context, root string) (<-chan domain.FileChange, error)
}
