// Package env layers environment variables over persisted settings.
//
// Variables may come from the process environment or from a .env file
// loaded with LoadDotEnv. A variable already set in the process always wins
// over the same name in a .env file.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Recognised variables.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	OllamaHost         = "OLLAMA_HOST"
	EmbeddingModel     = "EMBEDDING_MODEL"
	EmbeddingProvider  = "EMBEDDING_PROVIDER"
	OpenAIAPIKey       = "OPENAI_API_KEY"
	OpenAIBaseURL      = "OPENAI_BASE_URL"
	EmbeddingTimeout   = "EMBEDDING_TIMEOUT"
	EmbeddingRateLimit = "EMBEDDING_RATE_LIMIT"
	IndexPath          = "CHROMA_DB_PATH"
	ChunkSize          = "DEFAULT_CHUNK_SIZE"
	ChunkOverlap       = "DEFAULT_OVERLAP"
	ChunkStrategy      = "CHUNK_STRATEGY"
	VectorDistance     = "VECTOR_DISTANCE"
	IngestBatchSize    = "INGEST_BATCH_SIZE"
	LLMProvider        = "LLM_PROVIDER"
	LLMModel           = "LLM_MODEL"
	LLMBaseURL         = "LLM_BASE_URL"
	AnthropicAPIKey    = "ANTHROPIC_API_KEY"
)

// Variables returns every recognised variable name.
func Variables() []string {
	return []string{
		OllamaHost, EmbeddingModel, EmbeddingProvider, OpenAIAPIKey, OpenAIBaseURL,
		EmbeddingTimeout, EmbeddingRateLimit, IndexPath, ChunkSize, ChunkOverlap,
		ChunkStrategy, VectorDistance, IngestBatchSize, LLMProvider, LLMModel,
		LLMBaseURL, AnthropicAPIKey,
	}
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) into the process environment. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Ensure Overlay implements the interface.
var _ driven.SettingsOverlay = (*Overlay)(nil)

// Overlay applies environment variables to settings.
type Overlay struct {
	lookup func(string) (string, bool)
}

// NewOverlay creates an overlay reading the process environment.
func NewOverlay() *Overlay {
	return &Overlay{lookup: os.LookupEnv}
}

// NewOverlayFromMap creates an overlay reading a fixed set of values.
func NewOverlayFromMap(vars map[string]string) *Overlay {
	return &Overlay{lookup: func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}}
}

// NewOverlayFromFile creates an overlay reading a .env file without touching
// the process environment.
func NewOverlayFromFile(path string) (*Overlay, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewOverlayFromMap(vars), nil
}

// Apply overwrites every field whose variable is set and non-empty.
// Malformed numbers and durations are reported as domain.ErrInvalidInput.
func (o *Overlay) Apply(s *domain.AppSettings) error {
	if v, ok := o.get(EmbeddingProvider); ok {
		s.Embedding.Provider = domain.AIProvider(strings.ToLower(v))
	}
	if v, ok := o.get(EmbeddingModel); ok {
		s.Embedding.Model = v
	}

	// The base URL variable follows the provider.
	switch s.Embedding.Provider {
	case domain.AIProviderOpenAI:
		if v, ok := o.get(OpenAIBaseURL); ok {
			s.Embedding.BaseURL = v
		}
	default:
		if v, ok := o.get(OllamaHost); ok {
			s.Embedding.BaseURL = normaliseHost(v)
		}
	}
	if v, ok := o.get(OpenAIAPIKey); ok {
		s.Embedding.APIKey = v
	}

	if v, ok := o.get(EmbeddingTimeout); ok {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", domain.ErrInvalidInput, EmbeddingTimeout, v, err)
		}
		s.Embedding.Timeout = d
	}
	if v, ok := o.get(EmbeddingRateLimit); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", domain.ErrInvalidInput, EmbeddingRateLimit, v, err)
		}
		s.Embedding.RateLimit = f
	}

	o.applyLLM(&s.LLM)

	if v, ok := o.get(IndexPath); ok {
		s.Index.Path = v
	}
	if v, ok := o.get(VectorDistance); ok {
		s.Index.Distance = domain.Distance(strings.ToLower(v))
	}

	if v, ok := o.get(ChunkStrategy); ok {
		s.Chunking.Strategy = domain.ChunkStrategy(strings.ToLower(v))
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{ChunkSize, &s.Chunking.ChunkSize},
		{ChunkOverlap, &s.Chunking.Overlap},
		{IngestBatchSize, &s.Ingest.BatchSize},
	}
	for _, i := range ints {
		v, ok := o.get(i.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", domain.ErrInvalidInput, i.name, v)
		}
		*i.dst = n
	}

	return nil
}

// applyLLM sets the language model fields. Provider API keys and OLLAMA_HOST
// are shared with embedding and follow the selected provider.
func (o *Overlay) applyLLM(l *domain.LLMSettings) {
	if v, ok := o.get(LLMProvider); ok {
		l.Provider = domain.AIProvider(strings.ToLower(v))
		if l.Provider == "none" {
			l.Provider = ""
		}
	}
	if v, ok := o.get(LLMModel); ok {
		l.Model = v
	}

	switch l.Provider {
	case domain.AIProviderOllama:
		if v, ok := o.get(OllamaHost); ok {
			l.BaseURL = normaliseHost(v)
		}
	case domain.AIProviderOpenAI:
		if v, ok := o.get(OpenAIAPIKey); ok {
			l.APIKey = v
		}
	case domain.AIProviderAnthropic:
		if v, ok := o.get(AnthropicAPIKey); ok {
			l.APIKey = v
		}
	}
	if v, ok := o.get(LLMBaseURL); ok {
		l.BaseURL = v
	}
}

func (o *Overlay) get(key string) (string, bool) {
	v, ok := o.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// normaliseHost accepts OLLAMA_HOST in the forms Ollama itself accepts:
// "host:port" without a scheme is treated as http.
func normaliseHost(v string) string {
	if !strings.Contains(v, "://") {
		v = "http://" + v
	}
	return strings.TrimRight(v, "/")
}

// parseDuration accepts Go durations ("45s") or a bare number of seconds.
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}
