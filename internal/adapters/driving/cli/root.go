// Package cli provides the docrag command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services used by the commands. They are built in PersistentPreRunE unless
// already set, which lets tests inject mocks.
var (
	settingsService  driving.SettingsService
	ingestionService driving.IngestionService
	retrievalService driving.RetrievalService

	// current holds the adapters built for this invocation so they can be closed.
	current *app
)

// pipelineAnnotation marks commands that need the ingestion and retrieval services.
const pipelineAnnotation = "docrag/pipeline"

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Ingest PDFs into a vector store and retrieve passages",
	Long: `docrag extracts text from PDF files, with fallbacks down to OCR for scanned
pages, splits it into overlapping chunks, embeds them and stores the vectors.
Queries return the most similar passages with their source file, page and a
relevance score, ready to feed a language model.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print progress and debug output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding config.toml and the default store (default ~/.docrag)")
}

// SetVersion sets the version reported by "docrag version" and the MCP server.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func needsPipeline(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[pipelineAnnotation] == "true" {
			return true
		}
	}
	return false
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if settingsService == nil {
		a, err := newApp(configDir)
		if err != nil {
			return err
		}
		current = a
		settingsService = a.settings
	}

	if needsPipeline(cmd) && (ingestionService == nil || retrievalService == nil) {
		if current == nil {
			return errors.New("pipeline services not configured")
		}
		current.sourceKind = ingestSource
		if err := current.buildPipeline(cmd.Context()); err != nil {
			return err
		}
		ingestionService = current.ingestion
		retrievalService = current.retrieval
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if current == nil {
		return nil
	}
	err := current.Close()
	current = nil
	settingsService = nil
	ingestionService = nil
	retrievalService = nil
	return err
}
