package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/waymark-project/waymark/internal/worker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <claims.jsonl>",
	Short: "Ingest a batch of raw claims from a JSON Lines file",
	Long: `Ingest reads one raw claim per line, deduplicates against the store,
classifies each source into a credibility tier, and maps new claims onto
the indicator catalog. Duplicates and per-claim failures are reported but
never abort the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		b := worker.NewBatchProcessor(app.pipeline, app.cfg.Concurrency.IngestWorkers)
		results, err := b.ProcessFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var ingested, duplicates, failed, links int
		for _, r := range results {
			switch {
			case r.Error != nil:
				failed++
				fmt.Printf("  FAIL  %-60q %v\n", truncateTitle(r.Raw.Title), r.Error)
			case r.Outcome.Duplicate:
				duplicates++
			default:
				ingested++
				links += r.Outcome.Links
			}
		}

		fmt.Printf("\nIngested %d claims (%d links), %d duplicates, %d failed\n",
			ingested, links, duplicates, failed)
		return nil
	},
}

func truncateTitle(s string) string {
	if len(s) > 57 {
		return s[:57] + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
