package driving

import "github.com/custodia-labs/docrag/internal/core/domain"

// SettingsService manages persisted application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then the config file,
	// then any overlays such as environment variables.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses, validates and persists a single setting by key
	// (e.g. "chunking.chunk_size").
	Set(key, value string) error

	// Keys returns every settable key.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Validate checks the effective settings for consistency.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured language model provider.
	// Returns domain.ErrLLMUnavailable when no provider is set.
	ValidateLLMConfig() error
}
