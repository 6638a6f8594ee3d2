package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query   string `json:"query" jsonschema:"the question or phrase to find relevant chunks for"`
	Results int    `json:"results,omitempty" jsonschema:"number of chunks to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ID             string  `json:"id"`
	DocumentID     string  `json:"document_id"`
	ChunkIndex     int     `json:"chunk_index"`
	SourceFile     string  `json:"source_file"`
	RelevanceScore float64 `json:"relevance_score"`
	Content        string  `json:"content"`
}

// AddDocumentInput is the input schema for the add_document tool.
type AddDocumentInput struct {
	Path  string `json:"path" jsonschema:"path of the file to ingest"`
	ID    string `json:"id,omitempty" jsonschema:"document id (default: file name without extension)"`
	Clean bool   `json:"clean,omitempty" jsonschema:"reset the collection before adding"`
}

// AddDocumentOutput is the output schema for the add_document tool.
type AddDocumentOutput struct {
	DocumentID     string `json:"document_id"`
	ChunksProduced int    `json:"chunks_produced"`
	ChunksIndexed  int    `json:"chunks_indexed"`
	ChunksFailed   int    `json:"chunks_failed"`
	ResetWarning   string `json:"reset_warning,omitempty"`
}

// RemoveDocumentInput is the input for the remove_document tool.
type RemoveDocumentInput struct {
	ID string `json:"id" jsonschema:"id of the document whose chunks are removed"`
}

// RemoveDocumentOutput is the output for the remove_document tool.
type RemoveDocumentOutput struct {
	DocumentID    string `json:"document_id"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// CollectionInfoInput is the (empty) input schema for collection_info.
type CollectionInfoInput struct{}

// CollectionInfoOutput is the output schema for the collection_info tool.
type CollectionInfoOutput struct {
	Name        string `json:"collection_name"`
	TotalChunks int    `json:"total_chunks"`
	Distance    string `json:"distance"`
	Dimension   int    `json:"dimension"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	Results  int    `json:"results,omitempty" jsonschema:"number of passages to retrieve (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string               `json:"answer"`
	Model   string               `json:"model,omitempty"`
	Sources []SearchResultOutput `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the document chunks most relevant to a query",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "add_document",
			Description: "Chunk, embed and index a local file",
		}, s.handleAddDocument)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "remove_document",
			Description: "Remove every indexed chunk of a document",
		}, s.handleRemoveDocument)
	}

	if s.ports.Collection != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "collection_info",
			Description: "Report the active collection name and chunk count",
		}, s.handleCollectionInfo)
	}

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using the most relevant document chunks as context",
		}, s.handleAsk)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.Query, input.Results)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: toResultOutputs(results),
		Count:   len(results),
	}
	return nil, output, nil
}

func toResultOutputs(results []domain.SearchResult) []SearchResultOutput {
	out := make([]SearchResultOutput, len(results))
	for i := range results {
		out[i] = SearchResultOutput{
			ID:             results[i].ID,
			DocumentID:     results[i].Metadata.DocumentID,
			ChunkIndex:     results[i].Metadata.ChunkIndex,
			SourceFile:     results[i].Metadata.SourceFile,
			RelevanceScore: results[i].RelevanceScore,
			Content:        results[i].Document,
		}
	}
	return out
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Answer == nil {
		return nil, AskOutput{}, errToolUnavailable
	}

	answer, err := s.ports.Answer.Ask(ctx, input.Question, input.Results)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		Answer:  answer.Text,
		Model:   answer.Model,
		Sources: toResultOutputs(answer.Sources),
	}, nil
}

// handleAddDocument handles the add_document tool invocation.
// A failed reset is reported in the output and ingestion continues.
func (s *Server) handleAddDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddDocumentInput,
) (*mcp.CallToolResult, AddDocumentOutput, error) {
	if s.ports.Ingest == nil {
		return nil, AddDocumentOutput{}, errToolUnavailable
	}
	if input.Path == "" {
		return nil, AddDocumentOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	var output AddDocumentOutput
	if input.Clean {
		if s.ports.Collection == nil {
			return nil, output, errToolUnavailable
		}
		if err := s.ports.Collection.Reset(ctx); err != nil {
			if !errors.Is(err, domain.ErrResetFailed) {
				return nil, output, err
			}
			output.ResetWarning = err.Error()
		}
	}

	result, err := s.ports.Ingest.AddDocument(ctx, input.Path, input.ID)
	output.DocumentID = result.DocumentID
	output.ChunksProduced = result.ChunksProduced
	output.ChunksIndexed = result.ChunksIndexed
	output.ChunksFailed = result.ChunksFailed
	if err != nil {
		return nil, output, err
	}
	return nil, output, nil
}

// handleCollectionInfo handles the collection_info tool invocation.
func (s *Server) handleRemoveDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveDocumentInput,
) (*mcp.CallToolResult, RemoveDocumentOutput, error) {
	if s.ports.Ingest == nil {
		return nil, RemoveDocumentOutput{}, errToolUnavailable
	}
	removed, err := s.ports.Ingest.RemoveDocument(ctx, input.ID)
	if err != nil {
		return nil, RemoveDocumentOutput{}, err
	}
	return nil, RemoveDocumentOutput{DocumentID: input.ID, ChunksRemoved: removed}, nil
}

func (s *Server) handleCollectionInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CollectionInfoInput,
) (*mcp.CallToolResult, CollectionInfoOutput, error) {
	if s.ports.Collection == nil {
		return nil, CollectionInfoOutput{}, errToolUnavailable
	}

	info, err := s.ports.Collection.Info(ctx)
	if err != nil {
		return nil, CollectionInfoOutput{}, err
	}

	output := CollectionInfoOutput{
		Name:        info.Name,
		TotalChunks: info.TotalChunks,
		Distance:    info.Distance.String(),
		Dimension:   info.Dimension,
	}
	if !info.CreatedAt.IsZero() {
		output.CreatedAt = info.CreatedAt.Format(time.RFC3339)
	}
	return nil, output, nil
}
