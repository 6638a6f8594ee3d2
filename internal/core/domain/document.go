package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Document identifies a source file being ingested.
// It is never stored as a single entity; only its chunks are persisted.
type Document struct {
	// ID is the caller-supplied or derived document identifier.
	ID string

	// Path is the source file path.
	Path string
}

// DocumentIDFromPath derives a document ID from a file path (the file stem).
func DocumentIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ChunkID returns the record ID for the chunk at index within a document.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// ChunkMetadata is the metadata stored alongside every chunk record.
type ChunkMetadata struct {
	// DocumentID is the owning document.
	DocumentID string `json:"document_id"`

	// ChunkIndex is the 0-based position of the chunk within its document.
	ChunkIndex int `json:"chunk_index"`

	// ChunkSize is the length of the chunk text in characters.
	ChunkSize int `json:"chunk_size"`

	// SourceFile is the path the document was read from.
	SourceFile string `json:"source_file"`
}

// ChunkRecord is a chunk persisted in the vector index.
type ChunkRecord struct {
	// ID is "{document_id}_chunk_{chunk_index}".
	ID string

	// Embedding is the vector representation of Document.
	Embedding []float32

	// Document is the chunk text.
	Document string

	// Metadata describes where the chunk came from.
	Metadata ChunkMetadata
}
