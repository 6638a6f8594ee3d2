package driven

// Normaliser extracts plain text from a structured document format
// (markdown, HTML, DOCX) before it is chunked.
//
// Files without a registered normaliser are treated as plain text and
// streamed straight into the chunker.
type Normaliser interface {
	// Name returns the format name (e.g. "markdown").
	Name() string

	// Extensions returns the lower-case file extensions handled,
	// including the leading dot.
	Extensions() []string

	// Normalise converts the raw file contents to text.
	Normalise(data []byte) (string, error)
}

// NormaliserLookup selects the normaliser for a file path.
type NormaliserLookup interface {
	// ForPath returns the normaliser for path, or nil for plain text.
	ForPath(path string) Normaliser
}
