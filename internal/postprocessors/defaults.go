package postprocessors

import (
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in chunkers with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(string(domain.ChunkStrategyRecursive), buildRecursive)
	r.Register(string(domain.ChunkStrategyStreaming), buildStreaming)
}

// NewDefaultRegistry returns a registry with the built-in chunkers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// ConfigFromSettings converts chunking settings to builder config.
func ConfigFromSettings(s domain.ChunkingSettings) map[string]any {
	return map[string]any{
		"chunk_size": s.ChunkSize,
		"overlap":    s.Overlap,
	}
}

// buildRecursive creates a recursive chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
func buildRecursive(cfg map[string]any) (driven.Chunker, error) {
	return chunker.NewRecursive(optionsFromConfig(cfg)...)
}

// buildStreaming creates a streaming chunker. Keys match buildRecursive.
func buildStreaming(cfg map[string]any) (driven.Chunker, error) {
	return chunker.NewStreaming(optionsFromConfig(cfg)...)
}

func optionsFromConfig(cfg map[string]any) []chunker.Option {
	var opts []chunker.Option
	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return opts
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
