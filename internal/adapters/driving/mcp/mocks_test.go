package mcp

import (
	"context"
	"iter"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	lastK   int
}

func (m *mockSearchService) Search(_ context.Context, _ string, k int) ([]domain.SearchResult, error) {
	m.lastK = k
	return m.results, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result   domain.IngestResult
	err      error
	removed  int
	path, id string
}

func (m *mockIngestService) AddDocument(_ context.Context, path, docID string) (domain.IngestResult, error) {
	m.path, m.id = path, docID
	return m.result, m.err
}

func (m *mockIngestService) Ingest(
	_ context.Context, _, _ string, _ iter.Seq[string],
) (domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestService) RemoveDocument(_ context.Context, docID string) (int, error) {
	if docID == "" {
		return 0, domain.ErrInvalidInput
	}
	m.id = docID
	return m.removed, m.err
}

func (m *mockIngestService) ReplaceDocument(_ context.Context, path, docID string) (domain.IngestResult, error) {
	return m.AddDocument(context.Background(), path, docID)
}

func (m *mockIngestService) Preview(_ string) (domain.DocumentPreview, error) {
	return domain.DocumentPreview{}, m.err
}

func (m *mockIngestService) SetProgressFunc(_ domain.ProgressFunc) {}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	info        domain.CollectionInfo
	collections []domain.Collection
	err         error
	resetErr    error
	resets      int
}

func (m *mockCollectionService) Open(_ context.Context) (domain.OpenOutcome, error) {
	return domain.OpenLoaded, m.err
}

func (m *mockCollectionService) Reset(_ context.Context) error {
	m.resets++
	return m.resetErr
}

func (m *mockCollectionService) Info(_ context.Context) (domain.CollectionInfo, error) {
	return m.info, m.err
}

func (m *mockCollectionService) List(_ context.Context) ([]domain.Collection, error) {
	return m.collections, m.err
}

func (m *mockCollectionService) Clean(_ context.Context) error { return m.err }

func (m *mockCollectionService) DiskUsage() (int64, error) { return 0, m.err }

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer   domain.Answer
	err      error
	question string
	k        int
}

func (m *mockAnswerService) Ask(_ context.Context, question string, k int) (domain.Answer, error) {
	m.question, m.k = question, k
	return m.answer, m.err
}
