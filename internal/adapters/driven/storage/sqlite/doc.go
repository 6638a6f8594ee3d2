// Package sqlite provides the persistent vector store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, accessed through github.com/jmoiron/sqlx. Collections and
// their chunk records live in a single database file inside the index
// directory:
//
//   - collections: name, distance metric, embedding dimension
//   - records: chunk text, float32 embedding BLOB and JSON metadata
//
// Nearest neighbour queries are exact: every record of the collection is
// scored with the collection's distance metric.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <index path>/docrag.db (default ./chroma_db).
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
