package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestNewVectorIndex_SQLite(t *testing.T) {
	base := t.TempDir()

	idx, err := NewVectorIndex(context.Background(), domain.StoreSettings{Backend: domain.StoreBackendSQLite}, base)
	require.NoError(t, err)
	defer idx.Close()

	store, ok := idx.(*sqlite.Store)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(base, "index", "index.db"), store.Path())
}

func TestNewVectorIndex_Memory(t *testing.T) {
	idx, err := NewVectorIndex(context.Background(), domain.StoreSettings{Backend: domain.StoreBackendMemory}, "")
	require.NoError(t, err)
	assert.IsType(t, &memory.VectorIndex{}, idx)
}

func TestNewVectorIndex_PgvectorNeedsDSN(t *testing.T) {
	_, err := NewVectorIndex(context.Background(), domain.StoreSettings{Backend: domain.StoreBackendPgvector}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewVectorIndex_Unsupported(t *testing.T) {
	_, err := NewVectorIndex(context.Background(), domain.StoreSettings{Backend: "redis"}, "")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		path, base, want string
	}{
		{"", "", ""},
		{"", "/home/u/.docrag", "/home/u/.docrag/index"},
		{"/data/idx", "/home/u/.docrag", "/data/idx"},
		{"custom", "/home/u/.docrag", "/home/u/.docrag/custom"},
		{"custom", "", "custom"},
	}
	for _, tt := range tests {
		assert.Equal(t, filepath.FromSlash(tt.want), resolvePath(filepath.FromSlash(tt.path), filepath.FromSlash(tt.base)), "path=%q base=%q", tt.path, tt.base)
	}
}
