package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Each text maps to a small deterministic vector; texts containing failOn
// fail to embed.
type mockEmbeddingService struct {
	mu     sync.Mutex
	failOn string
	err    error
	calls  []string
	vector func(text string) []float32
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)

	if m.err != nil {
		return nil, m.err
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, fmt.Errorf("%w: refused %q", domain.ErrEmbeddingFailed, text)
	}
	if m.vector != nil {
		return m.vector(text), nil
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return 3 }
func (m *mockEmbeddingService) ModelName() string            { return "mock" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

func (m *mockEmbeddingService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// flakyStore wraps the memory store to inject failures.
type flakyStore struct {
	*memory.VectorStore
	deleteErr error
	createErr error
	addErr    error
	addAfter  int // successful Add calls before addErr applies
}

func newFlakyStore() *flakyStore {
	return &flakyStore{VectorStore: memory.NewVectorStore()}
}

func (f *flakyStore) DeleteCollection(ctx context.Context, name string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.VectorStore.DeleteCollection(ctx, name)
}

func (f *flakyStore) CreateCollection(
	ctx context.Context, name string, d domain.Distance,
) (driven.VectorCollection, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	c, err := f.VectorStore.CreateCollection(ctx, name, d)
	if err != nil {
		return nil, err
	}
	return &flakyCollection{VectorCollection: c, store: f}, nil
}

func (f *flakyStore) GetCollection(ctx context.Context, name string) (driven.VectorCollection, error) {
	c, err := f.VectorStore.GetCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	return &flakyCollection{VectorCollection: c, store: f}, nil
}

func (f *flakyStore) GetOrCreateCollection(
	ctx context.Context, name string, d domain.Distance,
) (driven.VectorCollection, error) {
	c, err := f.VectorStore.GetOrCreateCollection(ctx, name, d)
	if err != nil {
		return nil, err
	}
	return &flakyCollection{VectorCollection: c, store: f}, nil
}

// flakyCollection fails Add once the store's budget is spent.
type flakyCollection struct {
	driven.VectorCollection
	store *flakyStore
	adds  int
}

func (c *flakyCollection) Add(ctx context.Context, records []domain.ChunkRecord) error {
	if c.store.addErr != nil && c.adds >= c.store.addAfter {
		return c.store.addErr
	}
	c.adds++
	return c.VectorCollection.Add(ctx, records)
}

// staticProvider implements CollectionProvider with a fixed result.
type staticProvider struct {
	collection driven.VectorCollection
	err        error
}

func (p staticProvider) Collection(context.Context) (driven.VectorCollection, error) {
	return p.collection, p.err
}

// fixedCollection implements driven.VectorCollection returning canned hits.
type fixedCollection struct {
	hits     []driven.VectorHit
	queryErr error
	lastK    int
}

func (c *fixedCollection) Name() string { return "fixed" }
func (c *fixedCollection) Info(context.Context) (domain.Collection, error) {
	return domain.Collection{Name: "fixed"}, nil
}
func (c *fixedCollection) Add(context.Context, []domain.ChunkRecord) error { return nil }
func (c *fixedCollection) Count(context.Context) (int, error)              { return len(c.hits), nil }
func (c *fixedCollection) DeleteDocument(context.Context, string) (int, error) {
	return 0, nil
}
func (c *fixedCollection) Query(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	c.lastK = k
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	if k > len(c.hits) {
		return c.hits, nil
	}
	return c.hits[:k], nil
}
