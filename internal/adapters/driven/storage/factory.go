// Package storage selects the vector index backend from settings.
package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// NewVectorIndex opens the backend named in settings. baseDir is the
// application directory; a relative SQLite path is resolved against it.
func NewVectorIndex(ctx context.Context, settings domain.StoreSettings, baseDir string) (driven.VectorIndex, error) {
	switch settings.Backend {
	case domain.StoreBackendSQLite, "":
		store, err := sqlite.NewStore(resolvePath(settings.Path, baseDir))
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.StoreBackendPgvector:
		store, err := postgres.NewStore(ctx, settings.DSN, settings.Table)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.StoreBackendMemory:
		return memory.NewVectorIndex(), nil
	default:
		return nil, fmt.Errorf("%w: store backend %q", domain.ErrUnsupportedType, settings.Backend)
	}
}

func resolvePath(path, baseDir string) string {
	switch {
	case path == "" && baseDir == "":
		return ""
	case path == "":
		return filepath.Join(baseDir, "index")
	case filepath.IsAbs(path) || baseDir == "":
		return path
	default:
		return filepath.Join(baseDir, path)
	}
}
