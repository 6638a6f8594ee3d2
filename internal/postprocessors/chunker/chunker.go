// Package chunker provides the text chunking strategies used at ingestion.
//
// Two strategies are available. Recursive splits the whole text on a
// separator hierarchy (paragraph, line, sentence, word) and falls back to
// fixed-width slicing. Streaming reads through a bounded rune buffer and cuts
// each chunk at the latest preferred separator, so memory stays proportional
// to the chunk size.
//
// All lengths are counted in characters (runes), not bytes.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// separators are tried in order of preference.
var separators = []string{"\n\n", "\n", ". ", " "}

var whitespaceRun = regexp.MustCompile(`\s+`)

// config holds the options shared by both strategies.
type config struct {
	chunkSize int
	overlap   int
}

// Option configures a chunker.
type Option func(*config)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *config) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *config) {
		c.overlap = overlap
	}
}

func newConfig(opts []Option) (config, error) {
	c := config{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(&c)
	}

	settings := domain.ChunkingSettings{ChunkSize: c.chunkSize, Overlap: c.overlap}
	if err := settings.Validate(); err != nil {
		return config{}, fmt.Errorf("chunker: %w", err)
	}
	return c, nil
}

// normalise collapses whitespace runs to a single space and trims the ends.
func normalise(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// overlapper prefixes each chunk with the tail of the previously emitted one.
type overlapper struct {
	overlap int
	prev    string
	started bool
}

// next returns chunk prefixed with the tail of the previous output. The
// tail is joined directly so the character fallback never gains a space
// inside a word.
func (o *overlapper) next(chunk string) string {
	if !o.started || o.overlap <= 0 {
		o.started = true
		o.prev = chunk
		return chunk
	}

	out := chunk
	if tail := strings.TrimLeftFunc(lastRunes(o.prev, o.overlap), unicode.IsSpace); tail != "" {
		out = tail + chunk
	}
	o.prev = out
	return out
}

// lastRunes returns the final n runes of s, or all of s when shorter.
func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
