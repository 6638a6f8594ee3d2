package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService retrieves the chunks nearest to a query.
type SearchService struct {
	collections CollectionProvider
	embedder    driven.EmbeddingService
	log         *logger.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(
	collections CollectionProvider,
	embedder driven.EmbeddingService,
	log *logger.Logger,
) *SearchService {
	if log == nil {
		log = logger.Discard()
	}
	return &SearchService{
		collections: collections,
		embedder:    embedder,
		log:         log,
	}
}

// Search embeds the query and returns up to k results, nearest first, in the
// order the index returned them. A non-positive k uses
// domain.DefaultSearchResults.
//
// If the query cannot be embedded the result is empty and the error is only
// logged; index failures are returned.
func (s *SearchService) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	s.log.Section("Search Execution")
	s.log.Debug("Query: %q", query)

	if strings.TrimSpace(query) == "" {
		s.log.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if k <= 0 {
		k = domain.DefaultSearchResults
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.log.Error("Error getting embedding: %v", err)
		return []domain.SearchResult{}, nil
	}

	collection, err := s.collections.Collection(ctx)
	if err != nil {
		return nil, err
	}

	hits, err := collection.Query(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection.Name(), err)
	}
	s.log.Debug("Index returned %d hits (k=%d)", len(hits), k)

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, domain.NewSearchResult(h.ID, h.Document, h.Metadata, h.Distance))
	}
	return results, nil
}
