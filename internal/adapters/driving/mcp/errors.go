// Package mcp provides an MCP (Model Context Protocol) server adapter for docrag.
// It lets a chat layer query the vector store and add pre-chunked content.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
