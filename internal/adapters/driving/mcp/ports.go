package mcp

import (
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides retrieval.
	Search driving.SearchService

	// Ingest adds documents. Optional; without it add_document fails.
	Ingest driving.IngestService

	// Collection manages the active collection. Optional.
	Collection driving.CollectionService

	// Answer generates grounded answers. Optional; the ask tool is only
	// registered when set.
	Answer driving.AnswerService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
