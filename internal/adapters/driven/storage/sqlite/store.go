package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

const (
	indexFile = "index.db"
	buildFile = "index.db.build"

	metaModel      = "model"
	metaDimensions = "dimensions"
)

var _ driven.VectorIndex = (*Store)(nil)

// Store is a SQLite-backed driven.VectorIndex.
type Store struct {
	mu      sync.RWMutex
	buildMu sync.Mutex
	dir     string
	path    string
	db      *sql.DB
}

// NewStore opens the index in dataDir, creating the directory if needed.
// If dataDir is empty, defaults to ~/.docrag/index. The database file itself
// is only created by Rebuild.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docrag", "index")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Store{
		dir:  dataDir,
		path: filepath.Join(dataDir, indexFile),
	}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Rebuild writes the chunks into a fresh database and swaps it in.
// On any failure the previous database is left as it was.
func (s *Store) Rebuild(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, model string) error {
	dims, err := domain.ValidateVectors(chunks, vectors)
	if err != nil {
		return err
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	buildPath := filepath.Join(s.dir, buildFile)
	removeDatabase(buildPath)

	db, err := openDatabase(buildPath, "DELETE")
	if err != nil {
		return err
	}
	if err := migrate(db, migrations.FS); err != nil {
		db.Close()
		removeDatabase(buildPath)
		return fmt.Errorf("running migrations: %w", err)
	}
	if err := writeBatch(ctx, db, chunks, vectors, func(tx *sql.Tx) error {
		return writeMeta(ctx, tx, model, dims)
	}); err != nil {
		db.Close()
		removeDatabase(buildPath)
		return err
	}
	if err := db.Close(); err != nil {
		removeDatabase(buildPath)
		return fmt.Errorf("closing new index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Warn("closing previous index: %v", err)
		}
		s.db = nil
	}
	removeSidecars(s.path)
	if err := os.Rename(buildPath, s.path); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}

	logger.Debug("sqlite: rebuilt %s with %d chunks (%s, %d dims)", s.path, len(chunks), model, dims)
	return nil
}

// Add appends chunks in one transaction.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, model string) (int, error) {
	dims, err := domain.ValidateVectors(chunks, vectors)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.openLocked()
	if err != nil {
		return 0, err
	}
	if err := checkModel(ctx, db, model, dims); err != nil {
		return 0, err
	}
	if err := writeBatch(ctx, db, chunks, vectors, nil); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Search scores every stored chunk against query and returns the best k.
func (s *Store) Search(ctx context.Context, query []float32, k int, model string) ([]domain.QueryResult, error) {
	if k <= 0 {
		k = domain.DefaultTopK
	}

	db, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	if err := checkModel(ctx, db, model, len(query)); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, content, source, page, total_pages, start_index, method, metadata, embedding
		FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []domain.ScoredChunk
	for rows.Next() {
		chunk, vec, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, domain.ScoredChunk{
			Chunk: chunk,
			Score: domain.RelevanceFromCosine(domain.Cosine(query, vec)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return domain.TopK(candidates, k, 0), nil
}

// Exists reports whether a built index is on disk.
func (s *Store) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking index: %w", err)
	}
	return true, nil
}

// Stats reads the chunk count and recorded model.
func (s *Store) Stats(ctx context.Context) (driven.IndexStats, error) {
	db, err := s.acquire()
	if err != nil {
		return driven.IndexStats{}, err
	}
	defer s.mu.RUnlock()

	model, dims, err := readMeta(ctx, db)
	if err != nil {
		return driven.IndexStats{}, err
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return driven.IndexStats{}, fmt.Errorf("counting chunks: %w", err)
	}

	return driven.IndexStats{
		Chunks:     count,
		Model:      model,
		Dimensions: dims,
		Location:   s.path,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// acquire returns the live connection with the read lock held.
// The caller must release it with s.mu.RUnlock.
func (s *Store) acquire() (*sql.DB, error) {
	for {
		s.mu.RLock()
		if s.db != nil {
			return s.db, nil
		}
		s.mu.RUnlock()

		s.mu.Lock()
		_, err := s.openLocked()
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}
}

// openLocked returns the live connection, opening it on first use.
// The caller must hold the write lock.
func (s *Store) openLocked() (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrStoreUnavailable
		}
		return nil, fmt.Errorf("checking index: %w", err)
	}

	db, err := openDatabase(s.path, "WAL")
	if err != nil {
		return nil, err
	}
	if err := migrate(db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	s.db = db
	return db, nil
}

func openDatabase(path, journal string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode("+journal+")&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func removeDatabase(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("removing %s: %v", path, err)
	}
	removeSidecars(path)
}

func removeSidecars(path string) {
	for _, p := range []string{path + "-wal", path + "-shm", path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("removing %s: %v", p, err)
		}
	}
}

// migrate runs all pending migrations.
func migrate(db *sql.DB, fsys fs.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_chunks.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// writeBatch inserts chunks in one transaction. before runs first inside
// the same transaction.
func writeBatch(ctx context.Context, db *sql.DB, chunks []domain.Chunk, vectors [][]float32, before func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if before != nil {
		if err := before(tx); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, content, source, page, total_pages, start_index, method, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		metadata, err := marshalMetadata(c.Metadata)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Content, c.Source, c.Page, c.TotalPages, c.Start, string(c.Method),
			metadata, float32SliceToBytes(vectors[i]),
		); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

func writeMeta(ctx context.Context, tx *sql.Tx, model string, dims int) error {
	for key, value := range map[string]string{
		metaModel:      model,
		metaDimensions: strconv.Itoa(dims),
	} {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO index_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value,
		); err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}
	return nil
}

func readMeta(ctx context.Context, db *sql.DB) (string, int, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM index_meta")
	if err != nil {
		return "", 0, fmt.Errorf("reading index metadata: %w", err)
	}
	defer rows.Close()

	var model string
	var dims int
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return "", 0, fmt.Errorf("scanning index metadata: %w", err)
		}
		switch key {
		case metaModel:
			model = value
		case metaDimensions:
			dims, _ = strconv.Atoi(value)
		}
	}
	return model, dims, rows.Err()
}

func checkModel(ctx context.Context, db *sql.DB, model string, dims int) error {
	stored, storedDims, err := readMeta(ctx, db)
	if err != nil {
		return err
	}
	if stored != model {
		return fmt.Errorf("%w: store uses %q, got %q", domain.ErrEmbeddingMismatch, stored, model)
	}
	if storedDims != dims {
		return fmt.Errorf("%w: store has %d dimensions, got %d", domain.ErrEmbeddingMismatch, storedDims, dims)
	}
	return nil
}

// scanChunk scans one chunk row.
func scanChunk(rows *sql.Rows) (domain.Chunk, []float32, error) {
	var c domain.Chunk
	var method, metadata string
	var blob []byte

	if err := rows.Scan(&c.ID, &c.Content, &c.Source, &c.Page, &c.TotalPages,
		&c.Start, &method, &metadata, &blob); err != nil {
		return domain.Chunk{}, nil, fmt.Errorf("scanning chunk: %w", err)
	}
	c.Method = domain.ExtractionMethod(method)
	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &c.Metadata); err != nil {
			return domain.Chunk{}, nil, fmt.Errorf("decoding chunk metadata: %w", err)
		}
	}
	return c, bytesToFloat32Slice(blob), nil
}

func marshalMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(b), nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
