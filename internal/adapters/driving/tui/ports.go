// Package tui provides an interactive terminal search screen for docrag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// DefaultResults is the number of results requested per query.
const DefaultResults = 10

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Search provides retrieval. Required.
	Search driving.SearchService

	// Collection supplies the header summary. Optional.
	Collection driving.CollectionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
