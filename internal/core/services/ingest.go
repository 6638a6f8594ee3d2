package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService chunks documents, embeds every chunk and writes the results
// to the active collection in batches.
type IngestService struct {
	collections CollectionProvider
	embedder    driven.EmbeddingService
	chunker     driven.Chunker
	batchSize   int
	log         *logger.Logger
	progress    domain.ProgressFunc
	normalisers driven.NormaliserLookup
}

// NewIngestService creates a new ingestion service.
// A non-positive batchSize uses domain.DefaultBatchSize.
func NewIngestService(
	collections CollectionProvider,
	embedder driven.EmbeddingService,
	chunker driven.Chunker,
	batchSize int,
	log *logger.Logger,
) *IngestService {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	if log == nil {
		log = logger.Discard()
	}
	return &IngestService{
		collections: collections,
		embedder:    embedder,
		chunker:     chunker,
		batchSize:   batchSize,
		log:         log,
	}
}

// SetProgressFunc registers a callback invoked after every batch.
func (s *IngestService) SetProgressFunc(fn domain.ProgressFunc) {
	s.progress = fn
}

// SetNormalisers registers the format lookup used by AddDocument and
// Preview. Without one every file is read as plain text.
func (s *IngestService) SetNormalisers(lookup driven.NormaliserLookup) {
	s.normalisers = lookup
}

// normaliserFor returns the normaliser for path, or nil for plain text.
func (s *IngestService) normaliserFor(path string) driven.Normaliser {
	if s.normalisers == nil {
		return nil
	}
	return s.normalisers.ForPath(path)
}

// AddDocument chunks the file at path and ingests it under docID.
// An empty docID is derived from the file name.
//
// Plain text files are streamed through the chunker; formats with a
// registered normaliser are converted to text first.
func (s *IngestService) AddDocument(ctx context.Context, path, docID string) (domain.IngestResult, error) {
	if _, err := statSource(path); err != nil {
		return domain.IngestResult{}, err
	}
	if docID == "" {
		docID = domain.DocumentIDFromPath(path)
	}

	if n := s.normaliserFor(path); n != nil {
		text, err := readNormalised(path, n)
		if err != nil {
			return domain.IngestResult{}, err
		}
		s.log.Info("Processing %s document: %s", n.Name(), path)
		estimated := domain.EstimateChunks(utf8.RuneCountInString(text), s.chunker.Size(), s.chunker.Overlap())
		return s.ingest(ctx, docID, path, s.chunker.Chunk(text), estimated)
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s.log.Info("Processing document: %s", path)

	// Adapt the reader sequence; a read error stops the sequence and is
	// reported after whatever was already ingested.
	var readErr error
	chunks := func(yield func(string) bool) {
		for chunk, err := range s.chunker.ChunkReader(f) {
			if err != nil {
				readErr = err
				return
			}
			if !yield(chunk) {
				return
			}
		}
	}

	characters, err := countRunes(path)
	if err != nil {
		return domain.IngestResult{}, err
	}
	estimated := domain.EstimateChunks(characters, s.chunker.Size(), s.chunker.Overlap())
	result, err := s.ingest(ctx, docID, path, chunks, estimated)
	if err != nil {
		return result, err
	}
	if readErr != nil {
		return result, fmt.Errorf("read %s: %w", path, readErr)
	}
	return result, nil
}

// Ingest embeds and writes a chunk sequence in batches.
//
// sourceFile must name an existing file; otherwise domain.ErrSourceNotFound
// is returned before anything is embedded or written. Chunk indices follow
// the sequence, so a dropped chunk leaves a gap in the stored IDs. Chunks
// whose embedding fails are logged and dropped; a failed write aborts with
// domain.ErrIndexWrite.
func (s *IngestService) Ingest(
	ctx context.Context,
	docID, sourceFile string,
	chunks iter.Seq[string],
) (domain.IngestResult, error) {
	if docID == "" {
		return domain.IngestResult{}, fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}
	if _, err := statSource(sourceFile); err != nil {
		return domain.IngestResult{DocumentID: docID}, err
	}
	return s.ingest(ctx, docID, sourceFile, chunks, 0)
}

// pendingChunk is a chunk waiting for its batch to be embedded.
type pendingChunk struct {
	index int
	text  string
}

func (s *IngestService) ingest(
	ctx context.Context,
	docID, sourceFile string,
	chunks iter.Seq[string],
	estimated int,
) (domain.IngestResult, error) {
	result := domain.IngestResult{DocumentID: docID}
	if docID == "" {
		return result, fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}

	collection, err := s.collections.Collection(ctx)
	if err != nil {
		return result, err
	}

	log := s.log.WithField("document_id", docID)
	log.Section("Ingest " + docID)

	batch := make([]pendingChunk, 0, s.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		records := make([]domain.ChunkRecord, 0, len(batch))
		for _, p := range batch {
			embedding, err := s.embedder.Embed(ctx, p.text)
			if err != nil {
				result.ChunksFailed++
				log.Warn("Dropping chunk %d: %v", p.index, err)
				continue
			}
			records = append(records, domain.ChunkRecord{
				ID:        domain.ChunkID(docID, p.index),
				Embedding: embedding,
				Document:  p.text,
				Metadata: domain.ChunkMetadata{
					DocumentID: docID,
					ChunkIndex: p.index,
					ChunkSize:  utf8.RuneCountInString(p.text),
					SourceFile: sourceFile,
				},
			})
		}
		batch = batch[:0]

		if len(records) > 0 {
			if err := collection.Add(ctx, records); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrIndexWrite, err)
			}
			result.Batches++
			result.ChunksIndexed += len(records)
			log.Debug("Wrote batch %d (%d records)", result.Batches, len(records))
		}

		if s.progress != nil {
			s.progress(domain.IngestProgress{
				DocumentID: docID,
				Processed:  result.ChunksProduced,
				Indexed:    result.ChunksIndexed,
				Estimated:  max(estimated, result.ChunksProduced),
			})
		}
		return nil
	}

	for chunk := range chunks {
		batch = append(batch, pendingChunk{index: result.ChunksProduced, text: chunk})
		result.ChunksProduced++
		if len(batch) == s.batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	if result.ChunksFailed > 0 {
		log.Warn("%d of %d chunks could not be embedded", result.ChunksFailed, result.ChunksProduced)
	}
	log.Info("Added %d chunks from document: %s", result.ChunksIndexed, docID)
	return result, nil
}

// RemoveDocument deletes every chunk of docID from the active collection
// and returns how many were removed.
func (s *IngestService) RemoveDocument(ctx context.Context, docID string) (int, error) {
	if docID == "" {
		return 0, fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}
	collection, err := s.collections.Collection(ctx)
	if err != nil {
		return 0, err
	}
	removed, err := collection.DeleteDocument(ctx, docID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrIndexWrite, err)
	}
	if removed > 0 {
		s.log.Info("Removed %d chunks of document: %s", removed, docID)
	}
	return removed, nil
}

// ReplaceDocument removes the stored chunks of docID and ingests path in
// their place, so a shorter revision leaves no stale chunks behind.
func (s *IngestService) ReplaceDocument(ctx context.Context, path, docID string) (domain.IngestResult, error) {
	if _, err := statSource(path); err != nil {
		return domain.IngestResult{}, err
	}
	if docID == "" {
		docID = domain.DocumentIDFromPath(path)
	}
	if _, err := s.RemoveDocument(ctx, docID); err != nil {
		return domain.IngestResult{DocumentID: docID}, err
	}
	return s.AddDocument(ctx, path, docID)
}

// Preview describes the document without ingesting it.
func (s *IngestService) Preview(path string) (domain.DocumentPreview, error) {
	if _, err := statSource(path); err != nil {
		return domain.DocumentPreview{}, err
	}

	var text string
	if n := s.normaliserFor(path); n != nil {
		normalised, err := readNormalised(path, n)
		if err != nil {
			return domain.DocumentPreview{}, err
		}
		text = normalised
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.DocumentPreview{}, fmt.Errorf("read %s: %w", path, err)
		}
		text = string(data)
	}
	characters := utf8.RuneCountInString(text)

	return domain.DocumentPreview{
		Name:            filepath.Base(path),
		WordCount:       len(strings.Fields(text)),
		Characters:      characters,
		ChunkSize:       s.chunker.Size(),
		Overlap:         s.chunker.Overlap(),
		EstimatedChunks: domain.EstimateChunks(characters, s.chunker.Size(), s.chunker.Overlap()),
	}, nil
}

// readNormalised reads path and converts it to text with n.
func readNormalised(path string, n driven.Normaliser) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, err := n.Normalise(data)
	if err != nil {
		return "", fmt.Errorf("normalise %s as %s: %w", path, n.Name(), err)
	}
	return text, nil
}

// countRunes counts the characters of the file at path without holding it
// in memory, so progress estimates match Preview for non-ASCII text.
func countRunes(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	n := 0
	for {
		_, _, err := r.ReadRune()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read %s: %w", path, err)
		}
		n++
	}
}

// statSource checks that path names a readable regular file.
func statSource(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	return info, nil
}
