package cli

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var (
	queryK    int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Retrieve the passages most similar to a question",
	Long: `Embed the question and print the most similar chunks from the vector store,
with their source file, page and relevance score in [0, 1].`,
	Example: `  docrag query "how many vacation days do employees get"
  docrag query -k 3 --json "payment terms"`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{pipelineAnnotation: "true"},
	RunE:        runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "limit", "k", 0, "number of results (default from settings)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	text := strings.Join(args, " ")
	results, err := retrievalService.Query(cmd.Context(), text, queryK)
	if err != nil {
		return err
	}

	if queryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		cmd.Println(mutedStyle.Render("No results. Run 'docrag ingest <directory>' to build the store."))
		return nil
	}
	for i, r := range results {
		cmd.Println(renderResult(i+1, r))
	}
	return nil
}
