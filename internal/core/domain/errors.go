package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, strategy or metric.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrSourceNotFound indicates the input file does not exist.
	// The add operation aborts before any write.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrEmbeddingFailed indicates a single embedding request failed.
	// The pipeline drops the affected chunk and continues.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrIndexWrite indicates a bulk write to the vector index failed.
	ErrIndexWrite = errors.New("index write failed")

	// ErrInvalidChunkConfig indicates chunk size and overlap are inconsistent.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// Index Errors.

	// ErrResetFailed indicates deleting a collection failed during reset.
	// The collection is recreated if missing, so it remains usable.
	ErrResetFailed = errors.New("collection reset failed")

	// ErrDimensionMismatch indicates an embedding size differs from the collection's.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Answer Errors.

	// ErrLLMUnavailable indicates no language model is configured or reachable.
	ErrLLMUnavailable = errors.New("language model unavailable")

	// ErrGenerationFailed indicates the language model rejected or failed a request.
	ErrGenerationFailed = errors.New("answer generation failed")
)
