package driven

import (
	"io"
	"iter"
)

// Chunker splits document text into bounded, overlap-joined chunks.
// Chunks are produced in document order, whitespace-normalised and never empty.
type Chunker interface {
	// Name returns the strategy name (e.g. "recursive", "streaming").
	Name() string

	// Chunk returns the chunks of text. Each range over the sequence
	// re-runs the algorithm.
	Chunk(text string) iter.Seq[string]

	// ChunkReader reads r and yields its chunks. A read failure is
	// yielded once as the error and ends the sequence.
	ChunkReader(r io.Reader) iter.Seq2[string, error]

	// Size returns the maximum chunk length in characters, before overlap.
	Size() int

	// Overlap returns the number of characters carried into the next chunk.
	Overlap() int
}
