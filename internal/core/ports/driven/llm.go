package driven

import "context"

// LLMService provides language model capabilities.
//
// Implementations may include:
//   - Ollama (llama3.2, mistral)
//   - OpenAI (gpt-4o-mini)
//   - Anthropic (claude-3-5-haiku)
type LLMService interface {
	// Chat performs a single non-streaming completion over the messages.
	// Failures wrap domain.ErrGenerationFailed.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a message in a conversation.
type ChatMessage struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// ChatOptions configures a chat request.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
