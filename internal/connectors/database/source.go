// Package database is the placeholder for a FileSource backed by a
// database of uploaded PDFs. Every operation returns domain.ErrNotImplemented.
package database

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.FileSource = (*Source)(nil)

// Source is a FileSource that will read PDFs stored as database rows.
type Source struct {
	dsn string
}

// New creates a database source for dsn.
func New(dsn string) *Source {
	return &Source{dsn: dsn}
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return "database"
}

// List is not implemented.
func (s *Source) List(_ context.Context, root string) ([]domain.FileInfo, error) {
	return nil, fmt.Errorf("database source list %q: %w", root, domain.ErrNotImplemented)
}

// Read is not implemented.
func (s *Source) Read(_ context.Context, path string) (*domain.SourceDocument, error) {
	return nil, fmt.Errorf("database source read %q: %w", path, domain.ErrNotImplemented)
}

// Close releases nothing.
func (s *Source) Close() error {
	return nil
}
