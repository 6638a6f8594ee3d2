package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Generation parameters for grounded answers.
const (
	answerMaxTokens   = 1024
	answerTemperature = 0.2
)

const answerSystemPrompt = `You answer questions using only the numbered context passages provided.
Cite passages by their number in square brackets, for example [1].
If the context does not contain the answer, say that you do not know.`

// AnswerService retrieves context for a question and asks a language model
// to answer from it.
type AnswerService struct {
	search driving.SearchService
	llm    driven.LLMService
	log    *logger.Logger
}

// NewAnswerService creates a new answer service.
func NewAnswerService(search driving.SearchService, llm driven.LLMService, log *logger.Logger) *AnswerService {
	if log == nil {
		log = logger.Discard()
	}
	return &AnswerService{
		search: search,
		llm:    llm,
		log:    log,
	}
}

// Ask answers question from the k nearest chunks. A non-positive k uses
// domain.DefaultSearchResults. When retrieval finds nothing the model is not
// called and the returned answer has no text.
func (s *AnswerService) Ask(ctx context.Context, question string, k int) (domain.Answer, error) {
	s.log.Section("Answer Generation")

	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return domain.Answer{}, domain.ErrLLMUnavailable
	}

	sources, err := s.search.Search(ctx, question, k)
	if err != nil {
		return domain.Answer{}, err
	}

	answer := domain.Answer{
		Question: question,
		Model:    s.llm.ModelName(),
		Sources:  sources,
	}
	if len(sources) == 0 {
		s.log.Debug("No context retrieved, skipping generation")
		return answer, nil
	}

	s.log.Debug("Generating with %s over %d passages", answer.Model, len(sources))
	text, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: answerSystemPrompt},
		{Role: driven.RoleUser, Content: buildAnswerPrompt(question, sources)},
	}, driven.ChatOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return domain.Answer{}, err
	}

	answer.Text = strings.TrimSpace(text)
	return answer, nil
}

// buildAnswerPrompt numbers each passage from 1 and names its source.
func buildAnswerPrompt(question string, sources []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for i, r := range sources {
		source := r.Metadata.SourceFile
		if source == "" {
			source = r.Metadata.DocumentID
		}
		fmt.Fprintf(&b, "[%d] (%s, chunk %d)\n%s\n\n", i+1, source, r.Metadata.ChunkIndex, r.Document)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
