// Package postgres provides a driven.VectorIndex on Postgres with the
// pgvector extension. Similarity uses the cosine distance operator.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	_ "github.com/lib/pq" // Postgres driver
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.VectorIndex = (*Store)(nil)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,50}$`)

// Store keeps chunks in one table and the embedding model in a companion
// "<table>_meta" table. Writers on one Store are serialised so the model
// check and the insert of an Add cannot interleave with a Rebuild.
type Store struct {
	mu    sync.RWMutex
	db    *sql.DB
	table string
	meta  string
}

// NewStore connects to dsn and enables the vector extension.
// table defaults to domain.DefaultTable and must be a plain lower-case
// identifier.
func NewStore(ctx context.Context, dsn, table string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", domain.ErrInvalidInput)
	}
	if table == "" {
		table = domain.DefaultTable
	}
	table = strings.ToLower(table)
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", domain.ErrInvalidInput, table)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling vector extension: %w", err)
	}

	return &Store{
		db:    db,
		table: table,
		meta:  table + "_meta",
	}, nil
}

// Rebuild drops and recreates the tables inside one transaction, so
// readers see either the old rows or the new ones.
func (s *Store) Rebuild(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, model string) error {
	dims, err := domain.ValidateVectors(chunks, vectors)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	statements := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", s.table),
		fmt.Sprintf("DROP TABLE IF EXISTS %s", s.meta),
		fmt.Sprintf(`CREATE TABLE %s (
			seq         BIGSERIAL PRIMARY KEY,
			id          TEXT NOT NULL DEFAULT '',
			content     TEXT NOT NULL,
			source      TEXT NOT NULL DEFAULT '',
			page        INTEGER NOT NULL DEFAULT 0,
			total_pages INTEGER NOT NULL DEFAULT 0,
			start_index INTEGER NOT NULL DEFAULT 0,
			method      TEXT NOT NULL DEFAULT '',
			metadata    JSONB NOT NULL DEFAULT '{}',
			embedding   vector(%d) NOT NULL
		)`, s.table, dims),
		fmt.Sprintf("CREATE TABLE %s (key TEXT PRIMARY KEY, value TEXT NOT NULL)", s.meta),
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("recreating tables: %w", err)
		}
	}

	metaInsert := fmt.Sprintf("INSERT INTO %s (key, value) VALUES ($1, $2), ($3, $4)", s.meta)
	if _, err := tx.ExecContext(ctx, metaInsert, "model", model, "dimensions", strconv.Itoa(dims)); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}
	if err := s.insert(ctx, tx, chunks, vectors); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rebuild: %w", err)
	}
	logger.Debug("postgres: rebuilt %s with %d chunks (%s, %d dims)", s.table, len(chunks), model, dims)
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

	if err := s.checkModel(ctx, model, dims); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := s.insert(ctx, tx, chunks, vectors); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing chunks: %w", err)
	}
	return len(chunks), nil
}

// Search orders rows by cosine distance to query.
func (s *Store) Search(ctx context.Context, query []float32, k int, model string) ([]domain.QueryResult, error) {
	if k <= 0 {
		k = domain.DefaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkModel(ctx, model, len(query)); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		SELECT id, content, source, page, total_pages, start_index, method, metadata,
		       1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY embedding <=> $1, seq
		LIMIT $2`, s.table)

	rows, err := s.db.QueryContext(ctx, q, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []domain.ScoredChunk
	for rows.Next() {
		var c domain.Chunk
		var method string
		var metadata []byte
		var similarity sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.Content, &c.Source, &c.Page, &c.TotalPages,
			&c.Start, &method, &metadata, &similarity); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Method = domain.ExtractionMethod(method)
		if len(metadata) > 0 && string(metadata) != "{}" {
			if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
				return nil, fmt.Errorf("decoding chunk metadata: %w", err)
			}
		}
		candidates = append(candidates, domain.ScoredChunk{
			Chunk: c,
			Score: domain.RelevanceFromCosine(similarity.Float64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return domain.TopK(candidates, k, 0), nil
}

// Exists reports whether the chunk table has been created.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", s.meta).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking table: %w", err)
	}
	return exists, nil
}

// Stats counts rows and reads the recorded model.
func (s *Store) Stats(ctx context.Context) (driven.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	model, dims, err := s.readMeta(ctx)
	if err != nil {
		return driven.IndexStats{}, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&count); err != nil {
		return driven.IndexStats{}, fmt.Errorf("counting chunks: %w", err)
	}

	return driven.IndexStats{
		Chunks:     count,
		Model:      model,
		Dimensions: dims,
		Location:   "postgres table " + s.table,
	}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, chunks []domain.Chunk, vectors [][]float32) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, content, source, page, total_pages, start_index, method, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		metadata := []byte("{}")
		if len(c.Metadata) > 0 {
			if metadata, err = json.Marshal(c.Metadata); err != nil {
				return fmt.Errorf("chunk %d: marshalling metadata: %w", i, err)
			}
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Content, c.Source, c.Page, c.TotalPages, c.Start, string(c.Method),
			string(metadata), pgvector.NewVector(vectors[i]),
		); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) readMeta(ctx context.Context) (string, int, error) {
	exists, err := s.Exists(ctx)
	if err != nil {
		return "", 0, err
	}
	if !exists {
		return "", 0, domain.ErrStoreUnavailable
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT key, value FROM %s", s.meta))
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
		case "model":
			model = value
		case "dimensions":
			dims, _ = strconv.Atoi(value)
		}
	}
	return model, dims, rows.Err()
}

func (s *Store) checkModel(ctx context.Context, model string, dims int) error {
	stored, storedDims, err := s.readMeta(ctx)
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
