package cli

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	ingestWatch    bool
	ingestDebounce time.Duration
	ingestSource   = sourceFilesystem
	ingestJSON     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <directory>",
	Short: "Build the vector store from a directory of PDFs",
	Long: `Extract text from every PDF under the directory, split it into chunks,
embed the chunks and replace the vector store with the result.

Each file goes through a cascade of extractors: pdftotext, a pure Go parser,
mutool, layout-preserving pdftotext and finally tesseract OCR. Files that no
extractor can read are reported and skipped.

With --watch the directory is re-ingested whenever a PDF changes.`,
	Example: `  docrag ingest ./handbooks
  docrag ingest ./scans --watch --debounce 5s`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{pipelineAnnotation: "true"},
	RunE:        runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest when PDFs change")
	ingestCmd.Flags().DurationVar(&ingestDebounce, "debounce", 2*time.Second, "quiet period before a watched change triggers a run")
	ingestCmd.Flags().StringVar(&ingestSource, "source", sourceFilesystem, "where PDFs are read from (filesystem, database)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	root := args[0]

	report, err := ingestionService.IngestDirectory(cmd.Context(), root)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		if !ingestWatch || !errors.Is(err, domain.ErrEmptyBatch) {
			return err
		}
		cmd.PrintErrln(warningStyle.Render("Nothing indexed: " + err.Error()))
	}

	if !ingestWatch {
		return nil
	}

	cmd.PrintErrln(mutedStyle.Render("Watching " + root + " (Ctrl+C to stop)"))
	return ingestionService.Watch(cmd.Context(), root, ingestDebounce, func(r *domain.IngestReport, err error) {
		if r != nil {
			printReport(cmd, r)
		}
		if err != nil {
			cmd.PrintErrln(errorStyle.Render("Re-ingest failed: " + err.Error()))
		}
	})
}

func printReport(cmd *cobra.Command, r *domain.IngestReport) {
	if !ingestJSON {
		cmd.Print(renderReport(r))
		return
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		cmd.PrintErrln(errorStyle.Render("encode report: " + err.Error()))
	}
}
