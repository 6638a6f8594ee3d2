package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// It mirrors the SQLite store's semantics and backs service tests.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*vectorCollection
	path        string
	closed      bool
}

// vectorCollection holds one collection's records.
type vectorCollection struct {
	info    domain.Collection
	records map[string]domain.ChunkRecord
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]*vectorCollection),
		path:        ":memory:",
	}
}

// GetCollection loads an existing collection.
func (s *VectorStore) GetCollection(_ context.Context, name string) (driven.VectorCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}
	return &collectionHandle{store: s, id: c.info.ID, name: name}, nil
}

// CreateCollection creates a new empty collection.
func (s *VectorStore) CreateCollection(
	_ context.Context,
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrAlreadyExists)
	}

	c := &vectorCollection{
		info: domain.Collection{
			ID:        uuid.New().String(),
			Name:      name,
			Distance:  distance,
			CreatedAt: time.Now(),
		},
		records: make(map[string]domain.ChunkRecord),
	}
	s.collections[name] = c
	return &collectionHandle{store: s, id: c.info.ID, name: name}, nil
}

// GetOrCreateCollection loads the collection, creating it if missing.
func (s *VectorStore) GetOrCreateCollection(
	ctx context.Context,
	name string,
	distance domain.Distance,
) (driven.VectorCollection, error) {
	if c, err := s.GetCollection(ctx, name); err == nil {
		return c, nil
	}
	return s.CreateCollection(ctx, name, distance)
}

// DeleteCollection removes a collection and its records.
func (s *VectorStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}
	delete(s.collections, name)
	return nil
}

// ListCollections returns all collections ordered by name.
func (s *VectorStore) ListCollections(_ context.Context) ([]domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, c.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Path returns ":memory:".
func (s *VectorStore) Path() string {
	return s.path
}

// Close marks the store closed.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *VectorStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// lookup returns the live collection for a handle (caller must hold lock).
func (s *VectorStore) lookup(h *collectionHandle) (*vectorCollection, error) {
	c, ok := s.collections[h.name]
	if !ok || c.info.ID != h.id {
		return nil, fmt.Errorf("collection %q: %w", h.name, domain.ErrNotFound)
	}
	return c, nil
}

// collectionHandle implements driven.VectorCollection.
// Handles go stale when their collection is deleted, even if recreated.
type collectionHandle struct {
	store *VectorStore
	id    string
	name  string
}

func (h *collectionHandle) Name() string {
	return h.name
}

func (h *collectionHandle) Info(_ context.Context) (domain.Collection, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	c, err := h.store.lookup(h)
	if err != nil {
		return domain.Collection{}, err
	}
	return c.info, nil
}

func (h *collectionHandle) Add(_ context.Context, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	c, err := h.store.lookup(h)
	if err != nil {
		return err
	}

	dim := c.info.Dimension
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

	c.info.Dimension = dim
	for _, r := range records {
		r.Embedding = append([]float32(nil), r.Embedding...)
		c.records[r.ID] = r
	}
	return nil
}

func (h *collectionHandle) Query(_ context.Context, embedding []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	c, err := h.store.lookup(h)
	if err != nil {
		return nil, err
	}
	if c.info.Dimension == 0 {
		return nil, nil
	}
	if len(embedding) != c.info.Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(embedding), c.info.Dimension)
	}

	hits := make([]driven.VectorHit, 0, len(c.records))
	for _, r := range c.records {
		hits = append(hits, driven.VectorHit{
			ID:       r.ID,
			Document: r.Document,
			Metadata: r.Metadata,
			Distance: c.info.Distance.Between(embedding, r.Embedding),
		})
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

func (h *collectionHandle) Count(_ context.Context) (int, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	c, err := h.store.lookup(h)
	if err != nil {
		return 0, err
	}
	return len(c.records), nil
}

func (h *collectionHandle) DeleteDocument(_ context.Context, documentID string) (int, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	c, err := h.store.lookup(h)
	if err != nil {
		return 0, err
	}
	n := 0
	for id, r := range c.records {
		if r.Metadata.DocumentID == documentID {
			delete(c.records, id)
			n++
		}
	}
	return n, nil
}
