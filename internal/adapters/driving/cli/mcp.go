package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query the
vector store.

By default, the server communicates over stdio using JSON-RPC. Use --http to
serve the streamable HTTP transport instead, for example to test with the
MCP Inspector.

Tools:
  query        Retrieve the passages most similar to a question
  add_chunks   Embed and append caller-supplied chunks

Resources:
  docrag://stats      Store size and embedding model
  docrag://settings   Active configuration (secrets masked)

Examples:
  # Stdio mode (default)
  docrag mcp

  # HTTP mode
  docrag mcp --http :8080

Client configuration:
  {
    "mcpServers": {
      "docrag": {
        "command": "/path/to/docrag",
        "args": ["mcp"]
      }
    }
  }`,
	Annotations: map[string]string{pipelineAnnotation: "true"},
	RunE:        runMCP,
}

var mcpHTTPAddr string

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve HTTP on this address instead of stdio (e.g. :8080)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	mcp.Version = version

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: retrievalService,
		Ingestion: ingestionService,
		Settings:  settingsService,
	})
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}
	return server.Run(cmd.Context())
}
