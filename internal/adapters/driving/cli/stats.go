package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:         "stats",
	Short:       "Show the size and embedding model of the vector store",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{pipelineAnnotation: "true"},
	RunE:        runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	stats, ok, err := retrievalService.Stats(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		cmd.Println(mutedStyle.Render("The store has not been built. Run 'docrag ingest <directory>'."))
		return nil
	}

	cmd.Println(titleStyle.Render("Vector Store"))
	cmd.Printf("  %s %s\n", labelStyle.Render("Location:"), stats.Location)
	cmd.Printf("  %s %d\n", labelStyle.Render("Chunks:"), stats.Chunks)
	cmd.Printf("  %s %s\n", labelStyle.Render("Model:"), stats.Model)
	cmd.Printf("  %s %d\n", labelStyle.Render("Dimensions:"), stats.Dimensions)
	return nil
}
