package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "docrag://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Collection == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "Every collection in the vector index",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)
}

// collectionEntry is the JSON shape of one collection.
type collectionEntry struct {
	Name      string `json:"name"`
	Distance  string `json:"distance"`
	Dimension int    `json:"dimension"`
	CreatedAt string `json:"created_at"`
}

// handleCollectionsResource lists the collections in the store.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Collection == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	collections, err := s.ports.Collection.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	entries := make([]collectionEntry, len(collections))
	for i, c := range collections {
		entries[i] = collectionEntry{
			Name:      c.Name,
			Distance:  c.Distance.String(),
			Dimension: c.Dimension,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling collections: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
