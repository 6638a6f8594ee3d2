package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// AnswerService answers questions from the active collection.
type AnswerService interface {
	// Ask retrieves up to k chunks for the question and asks the language
	// model to answer from them. When nothing is retrieved the model is not
	// called and the answer text is empty.
	Ask(ctx context.Context, question string, k int) (domain.Answer, error)
}
