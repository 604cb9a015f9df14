package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var corroborateCmd = &cobra.Command{
	Use:   "corroborate",
	Short: "Run one corroboration and integrity pass",
	Long: `Corroborate promotes second-tier provisional links that have gained an
independent top-tier final link on the same indicator within the
corroboration window, then audits the store for links that violate the
tier rules. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		promoted, err := app.scanner.ScanOnce()
		if err != nil {
			return err
		}
		violations, err := app.scanner.Audit()
		if err != nil {
			return err
		}
		app.query.Invalidate()

		fmt.Printf("Promoted %d links to final\n", promoted)
		if violations > 0 {
			fmt.Printf("WARNING: %d integrity violations found (final links on never-scoring tiers)\n", violations)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(corroborateCmd)
}
