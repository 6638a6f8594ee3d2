package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyEmbedProvider  = "embedding.provider"
	KeyEmbedBaseURL   = "embedding.base_url"
	KeyEmbedModel     = "embedding.model"
	KeyEmbedAPIKey    = "embedding.api_key"
	KeyEmbedTimeout   = "embedding.timeout"
	KeyEmbedRateLimit = "embedding.rate_limit"
	KeyLLMProvider    = "llm.provider"
	KeyLLMBaseURL     = "llm.base_url"
	KeyLLMModel       = "llm.model"
	KeyLLMAPIKey      = "llm.api_key"
	KeyLLMTimeout     = "llm.timeout"
	KeyIndexPath      = "index.path"
	KeyIndexDistance  = "index.distance"
	KeyChunkStrategy  = "chunking.strategy"
	KeyChunkSize      = "chunking.chunk_size"
	KeyChunkOverlap   = "chunking.overlap"
	KeyBatchSize      = "ingest.batch_size"
	KeyCollection     = "collection.name"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.ProviderValidator
	overlays    []driven.SettingsOverlay
}

// NewSettingsService creates a new settings service.
// Overlays are applied in order on every Get; the validator may be nil.
func NewSettingsService(
	configStore driven.ConfigStore,
	validator driven.ProviderValidator,
	overlays ...driven.SettingsOverlay,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
		overlays:    overlays,
	}
}

// Get retrieves current application settings.
// Unparseable stored values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:  s.getProvider(defaults.Embedding.Provider),
			BaseURL:   s.getString(KeyEmbedBaseURL, defaults.Embedding.BaseURL),
			Model:     s.getString(KeyEmbedModel, defaults.Embedding.Model),
			APIKey:    s.configStore.GetString(KeyEmbedAPIKey),
			Timeout:   s.getDuration(KeyEmbedTimeout, defaults.Embedding.Timeout),
			RateLimit: s.configStore.GetFloat(KeyEmbedRateLimit),
		},
		LLM: domain.LLMSettings{
			Provider: s.getLLMProvider(),
			BaseURL:  s.configStore.GetString(KeyLLMBaseURL),
			Model:    s.configStore.GetString(KeyLLMModel),
			APIKey:   s.configStore.GetString(KeyLLMAPIKey),
			Timeout:  s.getDuration(KeyLLMTimeout, defaults.LLM.Timeout),
		},
		Chunking: domain.ChunkingSettings{
			Strategy:  s.getStrategy(defaults.Chunking.Strategy),
			ChunkSize: s.getInt(KeyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:   s.getOverlap(defaults.Chunking.Overlap),
		},
		Index: domain.IndexSettings{
			Path:       s.getString(KeyIndexPath, defaults.Index.Path),
			Distance:   s.getDistance(defaults.Index.Distance),
			Collection: s.getString(KeyCollection, defaults.Index.Collection),
		},
		Ingest: domain.IngestSettings{
			BatchSize: s.getInt(KeyBatchSize, defaults.Ingest.BatchSize),
		},
	}

	for _, o := range s.overlays {
		if err := o.Apply(settings); err != nil {
			return nil, fmt.Errorf("applying settings overlay: %w", err)
		}
	}

	return settings, nil
}

// Save persists application settings.
// API keys are only written when set, so a cleared key never erases a stored one.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedTimeout, settings.Embedding.Timeout.String()},
		{KeyEmbedRateLimit, settings.Embedding.RateLimit},
		{KeyLLMProvider, settings.LLM.Provider.String()},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMTimeout, settings.LLM.Timeout.String()},
		{KeyIndexPath, settings.Index.Path},
		{KeyIndexDistance, settings.Index.Distance.String()},
		{KeyChunkStrategy, settings.Chunking.Strategy.String()},
		{KeyChunkSize, settings.Chunking.ChunkSize},
		{KeyChunkOverlap, settings.Chunking.Overlap},
		{KeyBatchSize, settings.Ingest.BatchSize},
		{KeyCollection, settings.Index.Collection},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{KeyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{KeyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if err := s.configStore.Save(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Set parses value for key, validates the result against the other stored
// settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	parsed, err := parseSetting(key, value)
	if err != nil {
		return err
	}

	// Validate the stored settings with the new value applied, ignoring overlays.
	stored := NewSettingsService(s.configStore, nil)
	settings, err := stored.Get()
	if err != nil {
		return err
	}
	applySetting(settings, key, parsed)
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := s.configStore.Save(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Keys returns every settable key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := []string{
		KeyEmbedProvider, KeyEmbedBaseURL, KeyEmbedModel, KeyEmbedAPIKey,
		KeyEmbedTimeout, KeyEmbedRateLimit, KeyLLMProvider, KeyLLMBaseURL,
		KeyLLMModel, KeyLLMAPIKey, KeyLLMTimeout, KeyIndexPath, KeyIndexDistance,
		KeyChunkStrategy, KeyChunkSize, KeyChunkOverlap, KeyBatchSize, KeyCollection,
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Validate checks the effective settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current language model configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if !settings.LLM.IsEnabled() {
		return fmt.Errorf("%w: no provider set", domain.ErrLLMUnavailable)
	}
	if s.validator == nil {
		return nil
	}
	return s.validator.ValidateLLM(&settings.LLM)
}

// parseSetting converts a raw value into the type stored for key.
func parseSetting(key, value string) (any, error) {
	switch key {
	case KeyEmbedProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !p.SupportsEmbeddings() {
			return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, value)
		}
		return p.String(), nil

	case KeyLLMProvider:
		// "none" or an empty value disables answering.
		v := strings.ToLower(value)
		if v == "none" {
			v = ""
		}
		if p := domain.AIProvider(v); v != "" && !p.IsValid() {
			return nil, fmt.Errorf("%w: llm provider %q", domain.ErrUnsupportedType, value)
		}
		return v, nil

	case KeyLLMBaseURL, KeyLLMModel, KeyLLMAPIKey:
		return value, nil

	case KeyEmbedBaseURL, KeyEmbedModel, KeyEmbedAPIKey, KeyIndexPath, KeyCollection:
		if value == "" && key != KeyEmbedBaseURL && key != KeyEmbedAPIKey {
			return nil, fmt.Errorf("%w: %s must not be empty", domain.ErrInvalidInput, key)
		}
		return value, nil

	case KeyEmbedTimeout, KeyLLMTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: %s must be a positive duration such as 30s", domain.ErrInvalidInput, key)
		}
		return d.String(), nil

	case KeyEmbedRateLimit:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		return f, nil

	case KeyIndexDistance:
		d := domain.Distance(strings.ToLower(value))
		if !d.IsValid() {
			return nil, fmt.Errorf("%w: distance %q", domain.ErrUnsupportedType, value)
		}
		return d.String(), nil

	case KeyChunkStrategy:
		cs := domain.ChunkStrategy(strings.ToLower(value))
		if !cs.IsValid() {
			return nil, fmt.Errorf("%w: chunk strategy %q", domain.ErrUnsupportedType, value)
		}
		return cs.String(), nil

	case KeyChunkSize, KeyChunkOverlap, KeyBatchSize:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		return n, nil

	default:
		return nil, fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// applySetting writes a parsed value into settings.
func applySetting(s *domain.AppSettings, key string, v any) {
	switch key {
	case KeyEmbedProvider:
		s.Embedding.Provider = domain.AIProvider(v.(string))
	case KeyEmbedBaseURL:
		s.Embedding.BaseURL = v.(string)
	case KeyEmbedModel:
		s.Embedding.Model = v.(string)
	case KeyEmbedAPIKey:
		s.Embedding.APIKey = v.(string)
	case KeyEmbedTimeout:
		s.Embedding.Timeout, _ = time.ParseDuration(v.(string))
	case KeyEmbedRateLimit:
		s.Embedding.RateLimit = v.(float64)
	case KeyLLMProvider:
		s.LLM.Provider = domain.AIProvider(v.(string))
	case KeyLLMBaseURL:
		s.LLM.BaseURL = v.(string)
	case KeyLLMModel:
		s.LLM.Model = v.(string)
	case KeyLLMAPIKey:
		s.LLM.APIKey = v.(string)
	case KeyLLMTimeout:
		s.LLM.Timeout, _ = time.ParseDuration(v.(string))
	case KeyIndexPath:
		s.Index.Path = v.(string)
	case KeyIndexDistance:
		s.Index.Distance = domain.Distance(v.(string))
	case KeyCollection:
		s.Index.Collection = v.(string)
	case KeyChunkStrategy:
		s.Chunking.Strategy = domain.ChunkStrategy(v.(string))
	case KeyChunkSize:
		s.Chunking.ChunkSize = v.(int)
	case KeyChunkOverlap:
		s.Chunking.Overlap = v.(int)
	case KeyBatchSize:
		s.Ingest.BatchSize = v.(int)
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getOverlap distinguishes an explicit zero from an absent key.
func (s *SettingsService) getOverlap(defaultVal int) int {
	if _, exists := s.configStore.Get(KeyChunkOverlap); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(KeyChunkOverlap)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(KeyEmbedProvider))
	if !provider.SupportsEmbeddings() {
		return defaultVal
	}
	return provider
}

// getLLMProvider returns the stored provider, or "" (disabled) when unset or unknown.
func (s *SettingsService) getLLMProvider() domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(KeyLLMProvider))
	if !provider.IsValid() {
		return ""
	}
	return provider
}

func (s *SettingsService) getStrategy(defaultVal domain.ChunkStrategy) domain.ChunkStrategy {
	strategy := domain.ChunkStrategy(s.configStore.GetString(KeyChunkStrategy))
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

func (s *SettingsService) getDistance(defaultVal domain.Distance) domain.Distance {
	distance := domain.Distance(s.configStore.GetString(KeyIndexDistance))
	if !distance.IsValid() {
		return defaultVal
	}
	return distance
}
