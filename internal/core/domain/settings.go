package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an embedding or language model provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API. It serves language models only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// SupportsEmbeddings returns true if the provider can generate embeddings.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// ChunkStrategy selects the chunking algorithm.
type ChunkStrategy string

// Available chunking strategies.
const (
	// ChunkStrategyRecursive splits on a separator hierarchy.
	ChunkStrategyRecursive ChunkStrategy = "recursive"

	// ChunkStrategyStreaming reads the file through a bounded buffer.
	ChunkStrategyStreaming ChunkStrategy = "streaming"
)

// IsValid returns true if the strategy is recognised.
func (s ChunkStrategy) IsValid() bool {
	return s == ChunkStrategyRecursive || s == ChunkStrategyStreaming
}

// String returns the string representation.
func (s ChunkStrategy) String() string {
	return string(s)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Timeout bounds each embedding request.
	Timeout time.Duration

	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds language model configuration for answering questions.
// An empty Provider disables answering.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name. Empty uses the provider default.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Timeout bounds each generation request.
	Timeout time.Duration
}

// IsEnabled returns true if a provider has been chosen.
func (l LLMSettings) IsEnabled() bool {
	return l.Provider != ""
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	Strategy  ChunkStrategy
	ChunkSize int
	Overlap   int
}

// Validate checks the chunk size and overlap invariants.
func (c ChunkingSettings) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunkConfig, c.ChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidChunkConfig, c.Overlap)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			ErrInvalidChunkConfig, c.Overlap, c.ChunkSize)
	}
	return nil
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Path is the storage directory.
	Path string

	// Distance is used for newly created collections.
	Distance Distance

	// Collection is the active collection name.
	Collection string
}

// IngestSettings holds pipeline configuration.
type IngestSettings struct {
	BatchSize int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Index     IndexSettings
	Ingest    IngestSettings
}

// Validate checks all settings for consistency.
func (s AppSettings) Validate() error {
	if !s.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: embedding provider %q", ErrUnsupportedType, s.Embedding.Provider)
	}
	if s.LLM.IsEnabled() && !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: llm provider %q", ErrUnsupportedType, s.LLM.Provider)
	}
	if !s.Chunking.Strategy.IsValid() {
		return fmt.Errorf("%w: chunk strategy %q", ErrUnsupportedType, s.Chunking.Strategy)
	}
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if !s.Index.Distance.IsValid() {
		return fmt.Errorf("%w: distance %q", ErrUnsupportedType, s.Index.Distance)
	}
	if s.Index.Collection == "" {
		return fmt.Errorf("%w: collection name is empty", ErrInvalidInput)
	}
	if s.Ingest.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidInput, s.Ingest.BatchSize)
	}
	if s.Embedding.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidInput)
	}
	return nil
}

// DefaultAppSettings returns settings with the documented defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "nomic-embed-text:latest",
			BaseURL:  "http://localhost:11434",
			Timeout:  30 * time.Second,
		},
		Chunking: ChunkingSettings{
			Strategy:  ChunkStrategyRecursive,
			ChunkSize: 1000,
			Overlap:   200,
		},
		Index: IndexSettings{
			Path:       "./chroma_db",
			Distance:   DistanceCosine,
			Collection: DefaultCollectionName,
		},
		Ingest: IngestSettings{
			BatchSize: DefaultBatchSize,
		},
		LLM: LLMSettings{
			Timeout: 2 * time.Minute,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text:latest",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// AllLLMProviders returns providers that can answer questions.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}
