package domain

import (
	"math"
	"time"
)

// DefaultCollectionName is used when no collection is specified.
const DefaultCollectionName = "documents"

// Distance is the metric used to compare embeddings within a collection.
type Distance string

// Available distance metrics.
const (
	// DistanceCosine is 1 - cosine similarity (range 0..2).
	DistanceCosine Distance = "cosine"

	// DistanceL2 is the squared euclidean distance.
	DistanceL2 Distance = "l2"

	// DistanceInnerProduct is 1 - dot product.
	DistanceInnerProduct Distance = "ip"
)

// IsValid returns true if the distance metric is recognised.
func (d Distance) IsValid() bool {
	switch d {
	case DistanceCosine, DistanceL2, DistanceInnerProduct:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d Distance) String() string {
	return string(d)
}

// Collection is a named namespace holding chunk records.
type Collection struct {
	// ID is the storage identifier.
	ID string

	// Name is the user-facing collection name.
	Name string

	// Distance is the metric fixed at creation time.
	Distance Distance

	// Dimension is the embedding size, 0 until the first record is added.
	Dimension int

	// CreatedAt is when the collection was created.
	CreatedAt time.Time
}

// OpenOutcome reports which branch opening a collection took.
type OpenOutcome int

const (
	// OpenLoaded means an existing collection was loaded.
	OpenLoaded OpenOutcome = iota
	// OpenCreated means the collection did not exist and was created.
	OpenCreated
)

// String returns a human-readable outcome.
func (o OpenOutcome) String() string {
	switch o {
	case OpenLoaded:
		return "loaded"
	case OpenCreated:
		return "created"
	default:
		return "unknown"
	}
}

// CollectionInfo summarises a collection for display.
type CollectionInfo struct {
	Name        string
	TotalChunks int
	Distance    Distance
	Dimension   int
	CreatedAt   time.Time
}

// Between returns the distance from a to b under metric d.
// Vectors of different length are compared over their common prefix.
// A zero vector has cosine distance 1 from everything.
func (d Distance) Between(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, normA, normB, sq float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
		sq += (x - y) * (x - y)
	}

	switch d {
	case DistanceL2:
		return sq
	case DistanceInnerProduct:
		return 1 - dot
	default:
		if normA == 0 || normB == 0 {
			return 1
		}
		return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
	}
}
