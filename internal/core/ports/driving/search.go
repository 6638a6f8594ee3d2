package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// SearchService provides retrieval to external actors.
type SearchService interface {
	// Search embeds the query and returns up to k nearest chunks, nearest first.
	// An embedding failure yields an empty result, not an error.
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}
