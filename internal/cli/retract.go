package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	retractReason      string
	retractEvidenceURL string
)

var retractCmd = &cobra.Command{
	Use:   "retract <claim-id>",
	Short: "Retract a claim",
	Long: `Retract marks a claim withdrawn and removes its links from all future
score computations. Historical snapshots are left untouched. When an
evidence URL is given it must point at a live correction or withdrawal
notice and is verified before the retraction is applied. Retraction is
idempotent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if retractEvidenceURL != "" {
			if err := app.checker.CheckURL(cmd.Context(), retractEvidenceURL); err != nil {
				return fmt.Errorf("evidence URL: %w", err)
			}
		}

		if err := app.store.Retract(args[0], retractReason, retractEvidenceURL); err != nil {
			return err
		}
		app.query.Invalidate()

		fmt.Printf("Claim %s retracted\n", args[0])
		return nil
	},
}

func init() {
	retractCmd.Flags().StringVar(&retractReason, "reason", "", "why the claim is withdrawn")
	retractCmd.Flags().StringVar(&retractEvidenceURL, "evidence-url", "", "URL of the correction or withdrawal notice")
	_ = retractCmd.MarkFlagRequired("reason")
	rootCmd.AddCommand(retractCmd)
}
