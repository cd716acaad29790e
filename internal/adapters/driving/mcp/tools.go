package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/adapters/driving/schema"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the question or text to find similar passages for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Results []ResultOutput `json:"results"`
	Count   int            `json:"count"`
}

// ResultOutput is one ranked passage.
type ResultOutput struct {
	Content  string         `json:"content"`
	Source   string         `json:"source,omitempty"`
	Page     int            `json:"page,omitempty"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// AddChunksInput is the input schema for the add_chunks tool.
type AddChunksInput struct {
	Chunks []ChunkInput `json:"chunks" jsonschema:"pre-chunked passages to embed and append to the store"`
}

// ChunkInput is one caller-supplied passage.
type ChunkInput struct {
	Content  string         `json:"content" jsonschema:"text to embed; must not be blank"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"attributes returned with query results, e.g. source and page"`
}

// AddChunksOutput is the output schema for the add_chunks tool.
type AddChunksOutput struct {
	Added int `json:"added"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Return the passages from the ingested PDFs most similar to a query, with source, page and relevance score",
	}, s.handleQuery)

	if s.ports.Ingestion != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "add_chunks",
			Description: "Embed pre-chunked passages and append them to an existing store",
		}, s.handleAddChunks)
	}
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	results, err := s.ports.Retrieval.Query(ctx, input.Query, input.K)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Results: make([]ResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		metadata := results[i].Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		output.Results[i] = ResultOutput{
			Content:  results[i].Content,
			Source:   results[i].Source(),
			Page:     results[i].Page(),
			Score:    results[i].Score,
			Metadata: metadata,
		}
	}

	return nil, output, nil
}

// handleAddChunks handles the add_chunks tool invocation.
func (s *Server) handleAddChunks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddChunksInput,
) (*mcp.CallToolResult, AddChunksOutput, error) {
	chunks := make([]domain.ExternalChunk, len(input.Chunks))
	for i, c := range input.Chunks {
		chunks[i] = domain.ExternalChunk{Content: c.Content, Metadata: c.Metadata}
	}
	if err := schema.ValidateChunks(chunks); err != nil {
		return nil, AddChunksOutput{}, err
	}

	n, err := s.ports.Ingestion.AddExternalChunks(ctx, chunks)
	if err != nil {
		return nil, AddChunksOutput{}, fmt.Errorf("adding chunks: %w", err)
	}
	return nil, AddChunksOutput{Added: n}, nil
}
