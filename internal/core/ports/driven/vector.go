package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// VectorStore manages named collections of chunk records.
// Backed by SQLite on disk, or memory in tests.
type VectorStore interface {
	// GetCollection loads an existing collection.
	// Returns domain.ErrNotFound if it does not exist.
	GetCollection(ctx context.Context, name string) (VectorCollection, error)

	// CreateCollection creates a new empty collection.
	// Returns domain.ErrAlreadyExists if the name is taken.
	CreateCollection(ctx context.Context, name string, distance domain.Distance) (VectorCollection, error)

	// GetOrCreateCollection loads the collection, creating it if missing.
	GetOrCreateCollection(ctx context.Context, name string, distance domain.Distance) (VectorCollection, error)

	// DeleteCollection removes a collection and all its records.
	// Returns domain.ErrNotFound if it does not exist.
	DeleteCollection(ctx context.Context, name string) error

	// ListCollections returns all collections ordered by name.
	ListCollections(ctx context.Context) ([]domain.Collection, error)

	// Path returns the storage directory, empty for in-memory stores.
	Path() string

	// Close releases resources.
	Close() error
}

// VectorCollection is a handle to one collection in a VectorStore.
type VectorCollection interface {
	// Name returns the collection name.
	Name() string

	// Info returns the collection descriptor.
	Info(ctx context.Context) (domain.Collection, error)

	// Add upserts records. All records are written or none are.
	Add(ctx context.Context, records []domain.ChunkRecord) error

	// Query returns up to k nearest records to the embedding, nearest first.
	Query(ctx context.Context, embedding []float32, k int) ([]VectorHit, error)

	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)

	// DeleteDocument removes every record whose metadata names documentID
	// and returns how many were removed.
	DeleteDocument(ctx context.Context, documentID string) (int, error)
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched chunk record.
	ID string

	// Document is the chunk text.
	Document string

	// Metadata is the stored chunk metadata.
	Metadata domain.ChunkMetadata

	// Distance is the collection metric between query and record.
	Distance float64
}
