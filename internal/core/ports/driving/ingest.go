package driving

import (
	"context"
	"iter"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// IngestService turns documents into indexed chunk records.
type IngestService interface {
	// AddDocument chunks the file at path and ingests it under docID.
	// An empty docID is derived from the file name.
	AddDocument(ctx context.Context, path, docID string) (domain.IngestResult, error)

	// Ingest embeds and writes a chunk sequence in batches.
	// Chunks whose embedding fails are dropped; index write failures abort.
	Ingest(ctx context.Context, docID, sourceFile string, chunks iter.Seq[string]) (domain.IngestResult, error)

	// RemoveDocument deletes every chunk of docID and returns the count.
	RemoveDocument(ctx context.Context, docID string) (int, error)

	// ReplaceDocument removes docID's chunks and ingests path in their place.
	ReplaceDocument(ctx context.Context, path, docID string) (domain.IngestResult, error)

	// Preview describes the document without ingesting it.
	Preview(path string) (domain.DocumentPreview, error)

	// SetProgressFunc registers a callback invoked after every batch.
	SetProgressFunc(fn domain.ProgressFunc)
}
