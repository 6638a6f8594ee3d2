package chunker

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
	"unicode"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Streaming implements the interface.
var _ driven.Chunker = (*Streaming)(nil)

// Streaming chunks a reader through a buffer of roughly one chunk.
// Each chunk ends at the latest preferred separator inside the window,
// or at exactly chunk size characters when the window has none.
type Streaming struct {
	config
}

// NewStreaming creates a streaming chunker.
// Returns domain.ErrInvalidChunkConfig unless 0 <= overlap < chunk size.
func NewStreaming(opts ...Option) (*Streaming, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Streaming{config: c}, nil
}

// Name returns the strategy name.
func (s *Streaming) Name() string {
	return "streaming"
}

// Size returns the chunk size.
func (s *Streaming) Size() int {
	return s.chunkSize
}

// Overlap returns the overlap.
func (s *Streaming) Overlap() int {
	return s.overlap
}

// Chunk yields the chunks of text.
func (s *Streaming) Chunk(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for chunk, err := range s.ChunkReader(strings.NewReader(text)) {
			if err != nil || !yield(chunk) {
				return
			}
		}
	}
}

// ChunkReader yields chunks while reading r.
func (s *Streaming) ChunkReader(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		br := bufio.NewReader(r)
		o := overlapper{overlap: s.overlap}
		window := make([]rune, 0, s.chunkSize+1)
		eof := false

		emit := func(raw []rune) bool {
			chunk := normalise(string(raw))
			if chunk == "" {
				return true
			}
			return yield(normalise(o.next(chunk)), nil)
		}

		for {
			for !eof && len(window) <= s.chunkSize {
				ch, _, err := br.ReadRune()
				if errors.Is(err, io.EOF) {
					eof = true
					break
				}
				if err != nil {
					yield("", err)
					return
				}
				if len(window) == 0 && unicode.IsSpace(ch) {
					continue
				}
				window = append(window, ch)
			}

			if len(window) <= s.chunkSize {
				emit(window)
				return
			}

			cut := s.cutPoint(window[:s.chunkSize])
			if !emit(window[:cut]) {
				return
			}
			rest := window[cut:]
			for len(rest) > 0 && unicode.IsSpace(rest[0]) {
				rest = rest[1:]
			}
			window = append(window[:0], rest...)
		}
	}
}

// cutPoint returns the index just after the latest occurrence of the most
// preferred separator in window, or len(window) when none occurs.
func (s *Streaming) cutPoint(window []rune) int {
	for _, sep := range separators {
		if i := lastIndexRunes(window, []rune(sep)); i > 0 {
			return i + len([]rune(sep))
		}
	}
	return len(window)
}

func lastIndexRunes(haystack, needle []rune) int {
	for i := len(haystack) - len(needle); i >= 0; i-- {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
