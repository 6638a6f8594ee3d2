package cli

import (
	"bytes"
	"context"
	"iter"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

type mockSearchService struct {
	results []domain.SearchResult
	err     error
	query   string
	k       int
}

func (m *mockSearchService) Search(_ context.Context, query string, k int) ([]domain.SearchResult, error) {
	m.query, m.k = query, k
	return m.results, m.err
}

type mockIngestService struct {
	preview    domain.DocumentPreview
	previewErr error
	result     domain.IngestResult
	err        error
	progress   []domain.IngestProgress
	fn         domain.ProgressFunc
	path, id   string

	mu       sync.Mutex
	failOn   map[string]error
	added    []string
	replaced []string
	removed  []string
}

func (m *mockIngestService) AddDocument(_ context.Context, path, docID string) (domain.IngestResult, error) {
	m.mu.Lock()
	m.path, m.id = path, docID
	m.added = append(m.added, path)
	m.mu.Unlock()
	if m.fn != nil {
		for _, p := range m.progress {
			m.fn(p)
		}
	}
	if err, ok := m.failOn[filepath.Base(path)]; ok {
		return domain.IngestResult{}, err
	}
	return m.result, m.err
}

func (m *mockIngestService) RemoveDocument(_ context.Context, docID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, docID)
	return 1, nil
}

func (m *mockIngestService) ReplaceDocument(_ context.Context, path, _ string) (domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaced = append(m.replaced, path)
	return m.result, m.err
}

func (m *mockIngestService) calls() (added, replaced, removed []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.added...), append([]string(nil), m.replaced...), append([]string(nil), m.removed...)
}

func (m *mockIngestService) Ingest(_ context.Context, _, _ string, _ iter.Seq[string]) (domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestService) Preview(_ string) (domain.DocumentPreview, error) {
	return m.preview, m.previewErr
}

func (m *mockIngestService) SetProgressFunc(fn domain.ProgressFunc) {
	m.fn = fn
}

type mockCollectionService struct {
	info        domain.CollectionInfo
	collections []domain.Collection
	size        int64
	sizeErr     error
	resetErr    error
	cleanErr    error
	err         error
	resets      int
	cleans      int
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

func (m *mockCollectionService) Clean(_ context.Context) error {
	m.cleans++
	return m.cleanErr
}

func (m *mockCollectionService) DiskUsage() (int64, error) {
	return m.size, m.sizeErr
}

type mockSettingsService struct {
	settings    domain.AppSettings
	getErr      error
	setErr      error
	validateErr error
	pingErr     error
	llmPingErr  error
	set         map[string]string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"chunking.chunk_size", "embedding.model"}
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.llmPingErr }

type mockAnswerService struct {
	answer   domain.Answer
	err      error
	question string
	k        int
}

func (m *mockAnswerService) Ask(_ context.Context, question string, k int) (domain.Answer, error) {
	m.question, m.k = question, k
	if m.err != nil {
		return domain.Answer{}, m.err
	}
	a := m.answer
	a.Question = question
	return a, nil
}

// mockWiring records what it was asked to build.
type mockWiring struct {
	settings  driving.SettingsService
	index     *IndexServices
	indexErr  error
	opts      Options
	effective *domain.AppSettings
	builds    int
}

func (w *mockWiring) Settings(opts Options) (driving.SettingsService, error) {
	w.opts = opts
	return w.settings, nil
}

func (w *mockWiring) Index(opts Options, settings *domain.AppSettings) (*IndexServices, error) {
	w.opts = opts
	w.effective = settings
	w.builds++
	if w.indexErr != nil {
		return nil, w.indexErr
	}
	return w.index, nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	settings   *mockSettingsService
	collection *mockCollectionService
	ingest     *mockIngestService
	search     *mockSearchService
	answer     *mockAnswerService
}

// setupTestServices installs mock services and returns them with a
// cleanup function restoring the previous state.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	ts := &testServices{
		settings:   newMockSettingsService(),
		collection: &mockCollectionService{},
		ingest:     &mockIngestService{},
		search:     &mockSearchService{},
		answer:     &mockAnswerService{},
	}

	oldSettings, oldCollection, oldIngest, oldSearch := settingsService, collectionService, ingestService, searchService
	oldAnswer, oldAnswerErr := answerService, answerErr
	oldWiring, oldClients, oldStore := wiring, closeClients, closeStore

	settingsService = ts.settings
	collectionService = ts.collection
	ingestService = ts.ingest
	searchService = ts.search
	answerService, answerErr = ts.answer, nil

	t.Cleanup(func() {
		settingsService, collectionService, ingestService, searchService = oldSettings, oldCollection, oldIngest, oldSearch
		answerService, answerErr = oldAnswer, oldAnswerErr
		wiring, closeClients, closeStore = oldWiring, oldClients, oldStore
	})
	return ts
}

// clearServices removes all services so the wiring path is exercised.
func clearServices(t *testing.T) {
	t.Helper()
	oldSettings, oldCollection, oldIngest, oldSearch := settingsService, collectionService, ingestService, searchService
	oldAnswer, oldAnswerErr := answerService, answerErr
	oldWiring, oldClients, oldStore := wiring, closeClients, closeStore
	settingsService, collectionService, ingestService, searchService = nil, nil, nil, nil
	answerService, answerErr = nil, nil
	wiring, closeClients, closeStore = nil, nil, nil

	t.Cleanup(func() {
		settingsService, collectionService, ingestService, searchService = oldSettings, oldCollection, oldIngest, oldSearch
		answerService, answerErr = oldAnswer, oldAnswerErr
		wiring, closeClients, closeStore = oldWiring, oldClients, oldStore
	})
}

// execute runs the root command with args and returns combined output.
// Flag variables are reset afterwards.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags()
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags() {
	collectionName, configDir, verbose = "", "", false
	addDocID, addClean = "", false
	searchResults, searchJSON = domain.DefaultSearchResults, false
	infoAll = false
	askResults, askJSON = domain.DefaultSearchResults, false
	watchDebounce, watchNoSync = 500*time.Millisecond, false
}

// runWithContext invokes run on a standalone command bound to ctx, for
// commands that block until cancelled.
func runWithContext(
	t *testing.T, ctx context.Context, run func(*cobra.Command, []string) error, args ...string,
) (string, error) {
	t.Helper()
	t.Cleanup(resetFlags)
	buf := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	err := run(cmd, args)
	return buf.String(), err
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
