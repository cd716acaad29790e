package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/extractors/pdf"
)

var settingsRaw bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, the vector store and the other
pipeline options saved in config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Select the provider used to embed chunks and queries.

Changing the provider or model makes the existing store unusable for queries.
Run 'docrag ingest' again afterwards.`,
	RunE: runSettingsEmbedding,
}

var settingsStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Configure the vector store",
	Long:  `Select where vectors are stored: a local SQLite file, Postgres with pgvector, or memory.`,
	RunE:  runSettingsStore,
}

var settingsToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Check the external PDF tools",
	Long: `Report which of the command-line tools used by the extraction cascade are
installed. Missing tools only disable their stage; the pure Go parser always runs.`,
	RunE: runSettingsTools,
}

func init() {
	settingsShowCmd.Flags().BoolVar(&settingsRaw, "raw", false, "dump the settings structure")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsStoreCmd)
	settingsCmd.AddCommand(settingsToolsCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if settingsRaw {
		masked := *settings
		if masked.Embedding.APIKey != "" {
			masked.Embedding.APIKey = maskAPIKey(masked.Embedding.APIKey)
		}
		masked.Store.DSN = maskDSN(masked.Store.DSN)
		_, err := pp.Fprintln(cmd.OutOrStdout(), masked)
		return err
	}

	cmd.Println(titleStyle.Render("Current Settings"))
	cmd.Println()

	cmd.Println(labelStyle.Render("[Store]"))
	cmd.Printf("  Backend: %s\n", settings.Store.Backend.Description())
	switch settings.Store.Backend {
	case domain.StoreBackendSQLite:
		path := settings.Store.Path
		if path == "" {
			path = "(default)"
		}
		cmd.Printf("  Path: %s\n", path)
	case domain.StoreBackendPgvector:
		cmd.Printf("  DSN: %s\n", maskDSN(settings.Store.DSN))
		cmd.Printf("  Table: %s\n", settings.Store.Table)
	}
	cmd.Println()

	cmd.Println(labelStyle.Render("[Embedding]"))
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set, or export %s)\n", services.APIKeyEnv(settings.Embedding.Provider))
		}
	}
	cmd.Printf("  Batch size: %d\n", settings.Embedding.BatchSize)
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.2f req/s (burst %d)\n", settings.Embedding.RequestsPerSecond, settings.Embedding.Burst)
	}
	cmd.Println()

	cmd.Println(labelStyle.Render("[Chunker]"))
	cmd.Printf("  Chunk size: %d\n", settings.Chunker.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunker.Overlap)
	cmd.Println()

	cmd.Println(labelStyle.Render("[Ingest]"))
	cmd.Printf("  Workers: %d\n", settings.Ingest.Workers)
	cmd.Printf("  OCR language: %s\n", settings.Ingest.OCRLanguage)
	cmd.Printf("  OCR DPI: %d\n", settings.Ingest.OCRDPI)
	cmd.Println()

	cmd.Println(labelStyle.Render("[Retrieval]"))
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Min score: %.2f\n", settings.Retrieval.MinScore)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Println(warningStyle.Render(fmt.Sprintf("Warning: %v", err)))
		cmd.Println("Run 'docrag settings embedding' or 'docrag settings store' to fix configuration issues.")
	} else {
		cmd.Println(successStyle.Render("Configuration is valid."))
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsStore(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureStoreBackend(cmd, reader)
}

func runSettingsTools(cmd *cobra.Command, _ []string) error {
	for _, tool := range pdf.CheckTools() {
		status := successStyle.Render("found")
		if !tool.Available {
			status = warningStyle.Render("missing")
		}
		cmd.Printf("  %-10s %-8s %s\n", tool.Tool, status, mutedStyle.Render(tool.Purpose))
	}

	if err := pdf.CheckAvailable(); err != nil {
		cmd.Println()
		cmd.Println(pdf.InstallInstructions())
	}
	return nil
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		envVar := services.APIKeyEnv(selectedProvider)
		cmd.Printf("Enter API key (leave empty to use %s): ", envVar)
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" && os.Getenv(envVar) == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	cmd.Println(mutedStyle.Render("Re-run 'docrag ingest' so the store matches the new model."))
	return nil
}

func configureStoreBackend(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Vector Store")
	backends := domain.AllStoreBackends()
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(backends), 1)
	selected := backends[idx-1]

	var location string
	switch selected {
	case domain.StoreBackendSQLite:
		cmd.Print("Enter store directory [default]: ")
		location = readLine(reader)
	case domain.StoreBackendPgvector:
		cmd.Print("Enter Postgres DSN: ")
		location = readLine(reader)
		if location == "" {
			return errors.New("a DSN is required for pgvector")
		}
	}

	if err := settingsService.SetStoreBackend(selected, location); err != nil {
		return fmt.Errorf("failed to configure store: %w", err)
	}

	cmd.Printf("Vector store configured: %s\n", selected.Description())
	if selected == domain.StoreBackendMemory {
		cmd.Println(mutedStyle.Render("The memory store only lives as long as one command, e.g. 'docrag mcp'."))
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal and falls back
// to reader otherwise.
func readPassword(reader *bufio.Reader) string {
	if reader.Buffered() == 0 && term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password in a postgres URL.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":****@" + host
}
