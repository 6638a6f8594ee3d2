// Package mcp provides an MCP (Model Context Protocol) server adapter for docrag.
// It lets AI assistants search the local index and add documents to it.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// errToolUnavailable is returned by tools whose port was not provided.
var errToolUnavailable = errors.New("mcp: tool not available in this server")
