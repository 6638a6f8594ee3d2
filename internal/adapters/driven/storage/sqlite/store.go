package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// DBFileName is the database file created inside the index directory.
const DBFileName = "docrag.db"

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store holding any number of collections.
type Store struct {
	db   *sqlx.DB
	dir  string
	file string
}

// NewStore opens (or creates) the store in dataDir.
// If dataDir is empty, defaults to ~/.docrag/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docrag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)

	// Open database with WAL mode; foreign keys are per connection, so they
	// go in the DSN rather than a one-off PRAGMA.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		dir:  dataDir,
		file: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the index directory.
func (s *Store) Path() string {
	return s.dir
}

// DBPath returns the database file path.
func (s *Store) DBPath() string {
	return s.file
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Beginx()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Collections ====================

// collectionRow mirrors the collections table.
type collectionRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Distance  string    `db:"distance"`
	Dimension int       `db:"dimension"`
	CreatedAt time.Time `db:"created_at"`
}

func (r collectionRow) toDomain() domain.Collection {
	return domain.Collection{
		ID:        r.ID,
		Name:      r.Name,
		Distance:  domain.Distance(r.Distance),
		Dimension: r.Dimension,
		CreatedAt: r.CreatedAt,
	}
}

const selectCollection = `
	SELECT id, name, distance, dimension, created_at
	FROM collections WHERE name = ?
`

// GetCollection loads an existing collection.
func (s *Store) GetCollection(ctx context.Context, name string) (driven.VectorCollection, error) {
	row, err := s.getCollectionRow(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	return &collection{store: s, id: row.ID, name: row.Name}, nil
}

func (s *Store) getCollectionRow(ctx context.Context, q sqlx.QueryerContext, name string) (*collectionRow, error) {
	var row collectionRow
	if err := sqlx.GetContext(ctx, q, &row, selectCollection, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("loading collection %q: %w", name, err)
	}
	return &row, nil
}

// CreateCollection creates a new empty collection.
func (s *Store) CreateCollection(
	ctx context.Context,
	name string,
	distance domain.Distance,
) (driven.VectorCollection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}
	if distance == "" {
		distance = domain.DistanceCosine
	}
	if !distance.IsValid() {
		return nil, fmt.Errorf("%w: distance %q", domain.ErrUnsupportedType, distance)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := s.getCollectionRow(ctx, tx, name); err == nil {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	id := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO collections (id, name, distance, dimension, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, id, name, string(distance), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("creating collection %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing collection %q: %w", name, err)
	}

	return &collection{store: s, id: id, name: name}, nil
}

// GetOrCreateCollection loads the collection, creating it if missing.
func (s *Store) GetOrCreateCollection(
	ctx context.Context,
	name string,
	distance domain.Distance,
) (driven.VectorCollection, error) {
	c, err := s.GetCollection(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	c, err = s.CreateCollection(ctx, name, distance)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return s.GetCollection(ctx, name)
	}
	return c, err
}

// DeleteCollection removes a collection and, by cascade, its records.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting collection %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting collection %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}
	return nil
}

// ListCollections returns all collections ordered by name.
func (s *Store) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	var rows []collectionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, distance, dimension, created_at
		FROM collections ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	out := make([]domain.Collection, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ==================== Records ====================

// collection implements driven.VectorCollection.
type collection struct {
	store *Store
	id    string
	name  string
}

var _ driven.VectorCollection = (*collection)(nil)

// recordRow mirrors the records table.
type recordRow struct {
	ID        string `db:"id"`
	Document  string `db:"document"`
	Embedding []byte `db:"embedding"`
	Metadata  string `db:"metadata"`
}

// Name returns the collection name.
func (c *collection) Name() string {
	return c.name
}

// Info returns the collection descriptor.
func (c *collection) Info(ctx context.Context) (domain.Collection, error) {
	row, err := c.row(ctx, c.store.db)
	if err != nil {
		return domain.Collection{}, err
	}
	return row.toDomain(), nil
}

// row reloads the collection by ID, so a deleted collection reports ErrNotFound.
func (c *collection) row(ctx context.Context, q sqlx.QueryerContext) (*collectionRow, error) {
	var row collectionRow
	err := sqlx.GetContext(ctx, q, &row, `
		SELECT id, name, distance, dimension, created_at
		FROM collections WHERE id = ?
	`, c.id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %q: %w", c.name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection %q: %w", c.name, err)
	}
	return &row, nil
}

// Add upserts records in a single transaction.
// The first write fixes the collection's embedding dimension.
func (c *collection) Add(ctx context.Context, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row, err := c.row(ctx, tx)
	if err != nil {
		return err
	}

	dim := row.Dimension
	for _, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %s has no embedding", domain.ErrInvalidInput, r.ID)
		}
		if dim == 0 {
			dim = len(r.Embedding)
		}
		if len(r.Embedding) != dim {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Embedding), dim)
		}
	}

	if row.Dimension == 0 {
		if _, err := tx.ExecContext(ctx,
			"UPDATE collections SET dimension = ? WHERE id = ?", dim, c.id); err != nil {
			return fmt.Errorf("setting dimension: %w", err)
		}
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO records (collection_id, id, document, embedding, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, id) DO UPDATE SET
			document = excluded.document,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.id, r.ID, r.Document,
			float32SliceToBytes(r.Embedding), string(metadataJSON)); err != nil {
			return fmt.Errorf("saving record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// Query scores every record and returns the k nearest, nearest first.
// Ties are broken by record ID.
func (c *collection) Query(ctx context.Context, embedding []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	row, err := c.row(ctx, c.store.db)
	if err != nil {
		return nil, err
	}
	if row.Dimension == 0 {
		return nil, nil
	}
	if len(embedding) != row.Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(embedding), row.Dimension)
	}
	metric := domain.Distance(row.Distance)

	rows, err := c.store.db.QueryxContext(ctx, `
		SELECT id, document, embedding, metadata
		FROM records WHERE collection_id = ?
	`, c.id)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r recordRow
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		hit := driven.VectorHit{
			ID:       r.ID,
			Document: r.Document,
			Distance: metric.Between(embedding, bytesToFloat32Slice(r.Embedding)),
		}
		if r.Metadata != "" {
			if err := json.Unmarshal([]byte(r.Metadata), &hit.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling metadata for %s: %w", r.ID, err)
			}
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of records in the collection.
func (c *collection) Count(ctx context.Context) (int, error) {
	if _, err := c.row(ctx, c.store.db); err != nil {
		return 0, err
	}

	var n int
	if err := c.store.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM records WHERE collection_id = ?", c.id); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// DeleteDocument removes all records belonging to documentID.
func (c *collection) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	if _, err := c.row(ctx, c.store.db); err != nil {
		return 0, err
	}

	res, err := c.store.db.ExecContext(ctx, `
		DELETE FROM records
		WHERE collection_id = ? AND json_extract(metadata, '$.document_id') = ?
	`, c.id, documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return int(n), nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
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
