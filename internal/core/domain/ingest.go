package domain

// DefaultBatchSize is the number of chunks embedded before each bulk write.
const DefaultBatchSize = 10

// IngestResult summarises an ingestion run.
type IngestResult struct {
	// DocumentID is the document that was ingested.
	DocumentID string

	// ChunksProduced is the number of chunks yielded by the chunker.
	ChunksProduced int

	// ChunksIndexed is the number of chunks written to the index.
	ChunksIndexed int

	// ChunksFailed is the number of chunks dropped after an embedding failure.
	ChunksFailed int

	// Batches is the number of bulk writes issued.
	Batches int
}

// IngestProgress is reported after every processed batch.
type IngestProgress struct {
	DocumentID string

	// Processed is the number of chunks consumed so far.
	Processed int

	// Indexed is the number of chunks written so far.
	Indexed int

	// Estimated is the expected total, 0 when unknown.
	Estimated int
}

// ProgressFunc receives ingestion progress. It must not block.
type ProgressFunc func(IngestProgress)

// DocumentPreview describes a document before it is ingested.
type DocumentPreview struct {
	Name            string
	WordCount       int
	Characters      int
	ChunkSize       int
	Overlap         int
	EstimatedChunks int
}

// EstimateChunks returns ceil(characters / (chunkSize - overlap)),
// or 0 when the effective step is not positive.
func EstimateChunks(characters, chunkSize, overlap int) int {
	step := chunkSize - overlap
	if step <= 0 {
		return 0
	}
	return (characters + step - 1) / step
}
