package domain

// DefaultSearchResults is the number of results returned when none is requested.
const DefaultSearchResults = 5

// SearchResult represents a single retrieval hit.
type SearchResult struct {
	// ID is the chunk record ID.
	ID string `json:"id"`

	// Document is the chunk text.
	Document string `json:"document"`

	// Metadata is the chunk metadata.
	Metadata ChunkMetadata `json:"metadata"`

	// Distance is the index-reported distance to the query.
	Distance float64 `json:"distance"`

	// RelevanceScore is 1 - Distance. It is not clamped.
	RelevanceScore float64 `json:"relevance_score"`
}

// NewSearchResult builds a result, deriving the relevance score from distance.
func NewSearchResult(id, document string, metadata ChunkMetadata, distance float64) SearchResult {
	return SearchResult{
		ID:             id,
		Document:       document,
		Metadata:       metadata,
		Distance:       distance,
		RelevanceScore: 1 - distance,
	}
}
