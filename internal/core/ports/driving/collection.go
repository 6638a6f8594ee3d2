package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// CollectionService manages the lifecycle of the active collection.
type CollectionService interface {
	// Open loads the collection, creating it when it does not exist.
	Open(ctx context.Context) (domain.OpenOutcome, error)

	// Reset deletes and recreates the collection.
	// When deletion fails the collection is re-opened and ErrResetFailed is returned.
	Reset(ctx context.Context) error

	// Info summarises the collection.
	Info(ctx context.Context) (domain.CollectionInfo, error)

	// List returns every collection in the store.
	List(ctx context.Context) ([]domain.Collection, error)

	// Clean deletes every collection and removes the storage directory.
	// The underlying store is closed afterwards.
	Clean(ctx context.Context) error

	// DiskUsage reports the size of the storage directory in bytes.
	// Returns domain.ErrNotFound when the directory does not exist.
	DiskUsage() (int64, error)
}
