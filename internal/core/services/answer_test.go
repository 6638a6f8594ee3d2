package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// stubSearch implements driving.SearchService for testing.
type stubSearch struct {
	results []domain.SearchResult
	err     error
	gotK    int
}

func (s *stubSearch) Search(_ context.Context, _ string, k int) ([]domain.SearchResult, error) {
	s.gotK = k
	return s.results, s.err
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	reply    string
	err      error
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	calls    int
}

func (m *mockLLMService) Chat(_ context.Context, msgs []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = msgs
	m.opts = opts
	return m.reply, m.err
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

func testSources() []domain.SearchResult {
	return []domain.SearchResult{
		domain.NewSearchResult("guide_chunk_0", "Chunks overlap by 200 characters.",
			domain.ChunkMetadata{DocumentID: "guide", ChunkIndex: 0, SourceFile: "docs/guide.md"}, 0.1),
		domain.NewSearchResult("notes_chunk_4", "Batches hold ten chunks.",
			domain.ChunkMetadata{DocumentID: "notes", ChunkIndex: 4}, 0.3),
	}
}

func TestAnswerService_Ask(t *testing.T) {
	search := &stubSearch{results: testSources()}
	llm := &mockLLMService{reply: "  Chunks overlap by 200 characters [1].\n"}
	service := NewAnswerService(search, llm, nil)

	answer, err := service.Ask(context.Background(), "  how much overlap? ", 3)

	require.NoError(t, err)
	assert.Equal(t, "how much overlap?", answer.Question)
	assert.Equal(t, "Chunks overlap by 200 characters [1].", answer.Text)
	assert.Equal(t, "mock-llm", answer.Model)
	assert.Len(t, answer.Sources, 2)
	assert.Equal(t, 3, search.gotK)

	require.Equal(t, 1, llm.calls)
	require.Len(t, llm.messages, 2)
	assert.Equal(t, driven.RoleSystem, llm.messages[0].Role)
	assert.Equal(t, driven.RoleUser, llm.messages[1].Role)
	prompt := llm.messages[1].Content
	assert.Contains(t, prompt, "[1] (docs/guide.md, chunk 0)\nChunks overlap by 200 characters.")
	assert.Contains(t, prompt, "[2] (notes, chunk 4)\nBatches hold ten chunks.")
	assert.Contains(t, prompt, "Question: how much overlap?")
	assert.Equal(t, answerMaxTokens, llm.opts.MaxTokens)
	assert.InDelta(t, answerTemperature, llm.opts.Temperature, 1e-9)
}

func TestAnswerService_Ask_NoContextSkipsModel(t *testing.T) {
	llm := &mockLLMService{reply: "should not be used"}
	service := NewAnswerService(&stubSearch{}, llm, nil)

	answer, err := service.Ask(context.Background(), "anything?", 5)

	require.NoError(t, err)
	assert.False(t, answer.HasContext())
	assert.Empty(t, answer.Text)
	assert.Equal(t, 0, llm.calls)
}

func TestAnswerService_Ask_Errors(t *testing.T) {
	searchErr := errors.New("index offline")

	tests := []struct {
		name     string
		search   *stubSearch
		llm      driven.LLMService
		question string
		wantErr  error
	}{
		{
			name:     "empty question",
			search:   &stubSearch{results: testSources()},
			llm:      &mockLLMService{},
			question: "   ",
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "no model",
			search:   &stubSearch{results: testSources()},
			question: "q",
			wantErr:  domain.ErrLLMUnavailable,
		},
		{
			name:     "search failure",
			search:   &stubSearch{err: searchErr},
			llm:      &mockLLMService{},
			question: "q",
			wantErr:  searchErr,
		},
		{
			name:     "generation failure",
			search:   &stubSearch{results: testSources()},
			llm:      &mockLLMService{err: domain.ErrGenerationFailed},
			question: "q",
			wantErr:  domain.ErrGenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewAnswerService(tt.search, tt.llm, nil)
			_, err := service.Ask(context.Background(), tt.question, 5)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
