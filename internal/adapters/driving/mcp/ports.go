package mcp

import (
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers queries.
	Retrieval driving.RetrievalService

	// Ingestion accepts external chunks. Without it add_chunks is not offered.
	Ingestion driving.IngestionService

	// Settings exposes the effective configuration as a resource.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
