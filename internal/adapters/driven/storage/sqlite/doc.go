// Package sqlite provides the default persistent vector index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each chunk is one row holding its text,
// its position in the source document and its embedding as a little-endian float32
// blob. Similarity is computed by scanning every row.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.docrag/index/index.db
//
// # Rebuilds
//
// A rebuild writes a complete new database next to the live one and renames it
// into place, so readers see either the old store or the new one.
package sqlite
