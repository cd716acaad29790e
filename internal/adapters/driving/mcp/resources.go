package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for docrag resources.
	uriScheme = "docrag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Size, embedding model and location of the vector store",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	if s.ports.Settings != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "settings",
			Name:        "settings",
			Description: "Effective configuration, with secrets masked",
			MIMEType:    "application/json",
		}, s.handleSettingsResource)
	}
}

type statsInfo struct {
	Built      bool   `json:"built"`
	Chunks     int    `json:"chunks"`
	Model      string `json:"model,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
	Location   string `json:"location,omitempty"`
}

// handleStatsResource describes the vector store.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, ok, err := s.ports.Retrieval.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading store stats: %w", err)
	}

	info := statsInfo{Built: ok}
	if ok {
		info.Chunks = stats.Chunks
		info.Model = stats.Model
		info.Dimensions = stats.Dimensions
		info.Location = stats.Location
	}
	return jsonResource(req.Params.URI, info)
}

type settingsInfo struct {
	Store struct {
		Backend string `json:"backend"`
		Path    string `json:"path,omitempty"`
		Table   string `json:"table,omitempty"`
	} `json:"store"`
	Embedding struct {
		Provider  string `json:"provider"`
		Model     string `json:"model"`
		BaseURL   string `json:"base_url,omitempty"`
		APIKeySet bool   `json:"api_key_set"`
	} `json:"embedding"`
	Chunker struct {
		ChunkSize int `json:"chunk_size"`
		Overlap   int `json:"overlap"`
	} `json:"chunker"`
	Retrieval struct {
		TopK     int     `json:"top_k"`
		MinScore float64 `json:"min_score"`
	} `json:"retrieval"`
}

// handleSettingsResource reports the effective settings. The API key and
// the Postgres DSN are never included.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	var info settingsInfo
	info.Store.Backend = settings.Store.Backend.String()
	info.Store.Path = settings.Store.Path
	info.Store.Table = settings.Store.Table
	info.Embedding.Provider = settings.Embedding.Provider.String()
	info.Embedding.Model = settings.Embedding.Model
	info.Embedding.BaseURL = settings.Embedding.BaseURL
	info.Embedding.APIKeySet = settings.Embedding.APIKey != ""
	info.Chunker.ChunkSize = settings.Chunker.ChunkSize
	info.Chunker.Overlap = settings.Chunker.Overlap
	info.Retrieval.TopK = settings.Retrieval.TopK
	info.Retrieval.MinScore = settings.Retrieval.MinScore
	return jsonResource(req.Params.URI, info)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
