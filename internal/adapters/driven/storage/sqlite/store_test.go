package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "docrag-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		store.Close()
		os.RemoveAll(tempDir)
	})

	return store, tempDir
}

func record(docID string, index int, vec ...float32) domain.ChunkRecord {
	text := fmt.Sprintf("%s text %d", docID, index)
	return domain.ChunkRecord{
		ID:        domain.ChunkID(docID, index),
		Embedding: vec,
		Document:  text,
		Metadata: domain.ChunkMetadata{
			DocumentID: docID,
			ChunkIndex: index,
			ChunkSize:  len(text),
			SourceFile: docID + ".txt",
		},
	}
}

// ==================== Store Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, dir := setupTestStore(t)

	assert.Equal(t, dir, store.Path())
	assert.Equal(t, filepath.Join(dir, DBFileName), store.DBPath())
	_, err := os.Stat(store.DBPath())
	assert.NoError(t, err)
}

func TestNewStore_CreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "index")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.Get(&version, "SELECT MAX(version) FROM schema_migrations"))
	assert.Equal(t, 1, version)
}

// ==================== Collection Lifecycle Tests ====================

func TestStore_CreateAndGetCollection(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	created, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)
	assert.Equal(t, "documents", created.Name())

	got, err := store.GetCollection(ctx, "documents")
	require.NoError(t, err)

	info, err := got.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "documents", info.Name)
	assert.Equal(t, domain.DistanceCosine, info.Distance)
	assert.Equal(t, 0, info.Dimension)
	assert.NotEmpty(t, info.ID)
	assert.False(t, info.CreatedAt.IsZero())
}

func TestStore_CreateCollection_DefaultsToCosine(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", "")
	require.NoError(t, err)

	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DistanceCosine, info.Distance)
}

func TestStore_CreateCollection_Errors(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := store.CreateCollection(ctx, "", domain.DistanceCosine)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.CreateCollection(ctx, "docs", domain.Distance("manhattan"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = store.CreateCollection(ctx, "docs", domain.DistanceL2)
	require.NoError(t, err)
	_, err = store.CreateCollection(ctx, "docs", domain.DistanceL2)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestStore_GetCollection_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.GetCollection(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetOrCreateCollection(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	first, err := store.GetOrCreateCollection(ctx, "documents", domain.DistanceL2)
	require.NoError(t, err)
	require.NoError(t, first.Add(ctx, []domain.ChunkRecord{record("a", 0, 1, 0)}))

	// Second call loads the existing collection and keeps its metric.
	second, err := store.GetOrCreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)

	info, err := second.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DistanceL2, info.Distance)

	n, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_DeleteCollection(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{record("a", 0, 1, 0), record("a", 1, 0, 1)}))

	require.NoError(t, store.DeleteCollection(ctx, "documents"))

	_, err = store.GetCollection(ctx, "documents")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Stale handles report the collection as gone.
	_, err = c.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Records are removed by cascade.
	var orphans int
	require.NoError(t, store.db.Get(&orphans, "SELECT COUNT(*) FROM records"))
	assert.Equal(t, 0, orphans)
}

func TestStore_DeleteCollection_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	err := store.DeleteCollection(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteThenRecreate_IsEmpty(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{record("a", 0, 1, 0, 0)}))
	require.NoError(t, store.DeleteCollection(ctx, "documents"))

	c, err = store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Dimension resets with the collection.
	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{record("b", 0, 1, 0)}))
}

func TestStore_ListCollections(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	list, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, name := range []string{"notes", "archive", "documents"} {
		_, err := store.CreateCollection(ctx, name, domain.DistanceCosine)
		require.NoError(t, err)
	}

	list, err = store.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "archive", list[0].Name)
	assert.Equal(t, "documents", list[1].Name)
	assert.Equal(t, "notes", list[2].Name)
}

func TestStore_CollectionsAreIsolated(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	a, err := store.CreateCollection(ctx, "a", domain.DistanceCosine)
	require.NoError(t, err)
	b, err := store.CreateCollection(ctx, "b", domain.DistanceCosine)
	require.NoError(t, err)

	require.NoError(t, a.Add(ctx, []domain.ChunkRecord{record("doc", 0, 1, 0)}))

	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	hits, err := b.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

// ==================== Record Tests ====================

func TestCollection_AddAndCount(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, nil))

	records := []domain.ChunkRecord{
		record("alice", 0, 1, 0, 0),
		record("alice", 1, 0, 1, 0),
		record("alice", 2, 0, 0, 1),
	}
	require.NoError(t, c.Add(ctx, records))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Dimension)
}

func TestCollection_Add_Upserts(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{record("alice", 0, 1, 0)}))

	updated := record("alice", 0, 0, 1)
	updated.Document = "replaced"
	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{updated}))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := c.Query(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "replaced", hits[0].Document)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
}

func TestCollection_DeleteDocument(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)
	other, err := store.CreateCollection(ctx, "other", domain.DistanceCosine)
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{
		record("alice", 0, 1, 0),
		record("alice", 1, 0, 1),
		record("bob", 0, 1, 1),
	}))
	require.NoError(t, other.Add(ctx, []domain.ChunkRecord{record("alice", 0, 1, 0)}))

	n, err := c.DeleteDocument(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Other collections are untouched.
	count, err = other.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	n, err = c.DeleteDocument(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, store.DeleteCollection(ctx, "documents"))
	_, err = c.DeleteDocument(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollection_Add_DimensionMismatch(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)

	// Mixed sizes within one batch.
	err = c.Add(ctx, []domain.ChunkRecord{record("a", 0, 1, 0), record("a", 1, 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	// Nothing from the failed batch was written.
	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{record("a", 0, 1, 0)}))
	err = c.Add(ctx, []domain.ChunkRecord{record("b", 0, 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCollection_Add_EmptyEmbedding(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)

	err = c.Add(ctx, []domain.ChunkRecord{record("a", 0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollection_Query_OrdersByDistance(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{
		record("doc", 0, 0, 1),   // orthogonal
		record("doc", 1, 1, 0),   // identical
		record("doc", 2, 1, 1),   // 45 degrees
		record("doc", 3, -1, 0),  // opposite
		record("doc", 4, 1, 0.1), // almost identical
	}))

	hits, err := c.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "doc_chunk_1", hits[0].ID)
	assert.Equal(t, "doc_chunk_4", hits[1].ID)
	assert.Equal(t, "doc_chunk_2", hits[2].ID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
	}

	// Metadata round-trips through storage.
	assert.Equal(t, domain.ChunkMetadata{
		DocumentID: "doc",
		ChunkIndex: 1,
		ChunkSize:  len("doc text 1"),
		SourceFile: "doc.txt",
	}, hits[0].Metadata)
	assert.Equal(t, "doc text 1", hits[0].Document)
}

func TestCollection_Query_OppositeVectorExceedsOne(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{record("doc", 0, -1, 0)}))

	hits, err := c.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 2.0, hits[0].Distance, 1e-6)
}

func TestCollection_Query_UsesCollectionMetric(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceL2)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{
		record("doc", 0, 3, 0),
		record("doc", 1, 1, 1),
	}))

	hits, err := c.Query(ctx, []float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc_chunk_1", hits[0].ID)
	assert.InDelta(t, 2.0, hits[0].Distance, 1e-6)
	assert.InDelta(t, 9.0, hits[1].Distance, 1e-6)
}

func TestCollection_Query_KLargerThanCount(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{record("a", 0, 1, 0), record("a", 1, 0, 1)}))

	hits, err := c.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestCollection_Query_TiesBrokenByID(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{
		record("b", 0, 1, 0),
		record("a", 0, 1, 0),
	}))

	hits, err := c.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a_chunk_0", hits[0].ID)
	assert.Equal(t, "b_chunk_0", hits[1].ID)
}

func TestCollection_Query_EmptyCollection(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)

	hits, err := c.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = c.Query(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCollection_Query_DimensionMismatch(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{record("a", 0, 1, 0)}))

	_, err = c.Query(ctx, []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	c, err := store.CreateCollection(ctx, "documents", domain.DistanceCosine)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, []domain.ChunkRecord{record("alice", 0, 0.25, -0.5, 1.5)}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	c, err = reopened.GetCollection(ctx, "documents")
	require.NoError(t, err)

	hits, err := c.Query(ctx, []float32{0.25, -0.5, 1.5}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alice_chunk_0", hits[0].ID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
}

// ==================== Encoding Tests ====================

func TestFloat32Conversion(t *testing.T) {
	original := []float32{0, 1.5, -2.25, 3.14159, 1e-7}

	restored := bytesToFloat32Slice(float32SliceToBytes(original))
	assert.Equal(t, original, restored)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
	assert.Len(t, float32SliceToBytes(original), len(original)*4)
}
