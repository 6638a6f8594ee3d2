package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionProvider hands out the active collection.
// Ingestion and search ask for it on every call so they follow resets.
type CollectionProvider interface {
	Collection(ctx context.Context) (driven.VectorCollection, error)
}

// CollectionService owns the lifecycle of one named collection.
type CollectionService struct {
	store    driven.VectorStore
	name     string
	distance domain.Distance
	log      *logger.Logger

	mu      sync.Mutex
	current driven.VectorCollection
}

// NewCollectionService creates a service for the named collection.
// New collections use distance; existing ones keep theirs.
func NewCollectionService(
	store driven.VectorStore,
	name string,
	distance domain.Distance,
	log *logger.Logger,
) *CollectionService {
	if name == "" {
		name = domain.DefaultCollectionName
	}
	if log == nil {
		log = logger.Discard()
	}
	return &CollectionService{
		store:    store,
		name:     name,
		distance: distance,
		log:      log.WithField("collection", name),
	}
}

// Name returns the collection name.
func (s *CollectionService) Name() string {
	return s.name
}

// Open loads the collection, creating it when it does not exist.
func (s *CollectionService) Open(ctx context.Context) (domain.OpenOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open(ctx)
}

// open resolves the collection (caller must hold lock).
func (s *CollectionService) open(ctx context.Context) (domain.OpenOutcome, error) {
	c, err := s.store.GetCollection(ctx, s.name)
	if err == nil {
		s.current = c
		s.log.Info("Loaded existing collection: %s", s.name)
		return domain.OpenLoaded, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.OpenLoaded, fmt.Errorf("open collection %s: %w", s.name, err)
	}

	c, err = s.store.CreateCollection(ctx, s.name, s.distance)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Created concurrently by another process.
		c, err = s.store.GetCollection(ctx, s.name)
		if err == nil {
			s.current = c
			return domain.OpenLoaded, nil
		}
	}
	if err != nil {
		return domain.OpenCreated, fmt.Errorf("create collection %s: %w", s.name, err)
	}

	s.current = c
	s.log.Info("Created new collection: %s", s.name)
	return domain.OpenCreated, nil
}

// Collection returns the active collection, opening it on first use.
func (s *CollectionService) Collection(ctx context.Context) (driven.VectorCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		if _, err := s.open(ctx); err != nil {
			return nil, err
		}
	}
	return s.current, nil
}

// Reset deletes and recreates the collection.
// A collection that does not exist yet is simply created. On any other
// failure the collection is re-opened with get-or-create, so it is usable
// afterwards, and the failure is returned wrapped in domain.ErrResetFailed.
func (s *CollectionService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.DeleteCollection(ctx, s.name)
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		var c driven.VectorCollection
		c, err = s.store.CreateCollection(ctx, s.name, s.distance)
		if err == nil {
			s.current = c
			s.log.Warn("Collection '%s' has been reset.", s.name)
			return nil
		}
	}

	s.log.Error("Error resetting collection: %v", err)

	c, fallbackErr := s.store.GetOrCreateCollection(ctx, s.name, s.distance)
	if fallbackErr != nil {
		s.current = nil
		return fmt.Errorf("%w: %w (recreate failed: %w)", domain.ErrResetFailed, err, fallbackErr)
	}
	s.current = c
	return fmt.Errorf("%w: %w", domain.ErrResetFailed, err)
}

// Info summarises the collection.
func (s *CollectionService) Info(ctx context.Context) (domain.CollectionInfo, error) {
	c, err := s.Collection(ctx)
	if err != nil {
		return domain.CollectionInfo{}, err
	}

	meta, err := c.Info(ctx)
	if err != nil {
		return domain.CollectionInfo{}, fmt.Errorf("collection info: %w", err)
	}
	count, err := c.Count(ctx)
	if err != nil {
		return domain.CollectionInfo{}, fmt.Errorf("count chunks: %w", err)
	}

	return domain.CollectionInfo{
		Name:        c.Name(),
		TotalChunks: count,
		Distance:    meta.Distance,
		Dimension:   meta.Dimension,
		CreatedAt:   meta.CreatedAt,
	}, nil
}

// List returns every collection in the store.
func (s *CollectionService) List(ctx context.Context) ([]domain.Collection, error) {
	collections, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return collections, nil
}

// Clean deletes every collection, closes the store and removes the storage
// directory. The service must not be used afterwards.
func (s *CollectionService) Clean(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collections, err := s.store.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range collections {
		if err := s.store.DeleteCollection(ctx, c.Name); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete collection %s: %w", c.Name, err)
		}
		s.log.Debug("Deleted collection %s", c.Name)
	}
	s.current = nil

	path := s.store.Path()
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		s.log.Info("Removed database directory %s", path)
	}
	return nil
}

// DiskUsage reports the size of the storage directory in bytes.
// Symbolic links are not followed or counted.
func (s *CollectionService) DiskUsage() (int64, error) {
	return DirSize(s.store.Path())
}

// DirSize sums the sizes of regular files under root.
// Returns domain.ErrNotFound when root does not exist.
func DirSize(root string) (int64, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return 0, fmt.Errorf("database directory %s: %w", root, domain.ErrNotFound)
	}

	var total int64
	err = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("calculating size of %s: %w", root, err)
	}
	return total, nil
}
