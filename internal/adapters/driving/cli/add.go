package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/schema"
)

var addCmd = &cobra.Command{
	Use:   "add <file|->",
	Short: "Append externally prepared chunks to the vector store",
	Long: `Embed chunks prepared outside docrag and append them to an existing store.

The input is a JSON array or JSON Lines of objects with a "content" string and
an optional "metadata" object. The metadata keys "source" (string), "page" and
"start_index" (non-negative integers) are recognised; other keys are kept as
they are. Use "-" to read from stdin.

The whole batch is rejected if any chunk is invalid. Run "docrag ingest" first
to create the store.`,
	Example: `  docrag add notes.jsonl
  cat chunks.json | docrag add -`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{pipelineAnnotation: "true"},
	RunE:        runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open chunks: %w", err)
		}
		defer f.Close()
		in = f
	}

	chunks, err := schema.Read(in)
	if err != nil {
		return err
	}

	added, err := ingestionService.AddExternalChunks(cmd.Context(), chunks)
	if err != nil {
		return fmt.Errorf("adding chunks: %w", err)
	}

	cmd.Printf("%s %d chunks\n", successStyle.Render("Added"), added)
	return nil
}
