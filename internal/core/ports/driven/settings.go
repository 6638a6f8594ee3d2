package driven

import "github.com/custodia-labs/docrag/internal/core/domain"

// SettingsOverlay layers values from an outside source (such as the process
// environment) over settings read from the config store.
type SettingsOverlay interface {
	// Apply overwrites the fields the source defines.
	Apply(settings *domain.AppSettings) error
}

// ProviderValidator checks that AI provider configurations are reachable.
type ProviderValidator interface {
	// ValidateEmbedding pings the configured embedding provider.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error

	// ValidateLLM pings the configured language model provider.
	ValidateLLM(settings *domain.LLMSettings) error
}
