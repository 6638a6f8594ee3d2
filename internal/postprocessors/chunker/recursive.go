package chunker

import (
	"io"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Recursive implements the interface.
var _ driven.Chunker = (*Recursive)(nil)

// Recursive splits text on a separator hierarchy, then applies overlap.
type Recursive struct {
	config
}

// NewRecursive creates a recursive chunker.
// Returns domain.ErrInvalidChunkConfig unless 0 <= overlap < chunk size.
func NewRecursive(opts ...Option) (*Recursive, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Recursive{config: c}, nil
}

// Name returns the strategy name.
func (r *Recursive) Name() string {
	return "recursive"
}

// Size returns the chunk size.
func (r *Recursive) Size() int {
	return r.chunkSize
}

// Overlap returns the overlap.
func (r *Recursive) Overlap() int {
	return r.overlap
}

// Chunk yields the overlapped chunks of text.
// The split runs when iteration starts; chunks are then yielded one by one.
func (r *Recursive) Chunk(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		o := overlapper{overlap: r.overlap}
		for _, chunk := range r.Split(text) {
			if !yield(normalise(o.next(chunk))) {
				return
			}
		}
	}
}

// ChunkReader reads all of rd and yields its chunks.
func (r *Recursive) ChunkReader(rd io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		data, err := io.ReadAll(rd)
		if err != nil {
			yield("", err)
			return
		}
		for chunk := range r.Chunk(string(data)) {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Split returns the normalised chunks of text without overlap.
// Every chunk is at most the chunk size in length.
func (r *Recursive) Split(text string) []string {
	var out []string
	for _, piece := range r.split(text, separators) {
		if n := normalise(piece); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (r *Recursive) split(text string, seps []string) []string {
	if r.measure(text) <= r.chunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return r.slice(strings.TrimSpace(text))
	}

	sep, rest := seps[0], seps[1:]

	var (
		chunks []string
		buf    string
	)
	flush := func() {
		if strings.TrimSpace(buf) != "" {
			chunks = append(chunks, buf)
		}
		buf = ""
	}

	for _, piece := range strings.SplitAfter(text, sep) {
		if r.measure(piece) > r.chunkSize {
			flush()
			chunks = append(chunks, r.split(piece, rest)...)
			continue
		}
		if r.measure(buf+piece) <= r.chunkSize {
			buf += piece
			continue
		}
		flush()
		buf = piece
	}
	flush()

	return chunks
}

// slice cuts text into fixed-width pieces of exactly chunkSize runes,
// except possibly the last.
func (r *Recursive) slice(text string) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/r.chunkSize+1)
	for start := 0; start < len(runes); start += r.chunkSize {
		end := min(start+r.chunkSize, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

// measure is the length a piece will have once trimmed.
func (r *Recursive) measure(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
