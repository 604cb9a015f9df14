package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/waymark-project/waymark/internal/model"
)

var reviseReason string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect and revise the source registry",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sources and their tiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		sources, err := app.store.Sources()
		if err != nil {
			return err
		}
		for _, src := range sources {
			fmt.Printf("%-20s %-10s %s\n", src.ID, src.Tier, src.Domain)
		}
		return nil
	},
}

var sourcesReviseCmd = &cobra.Command{
	Use:   "revise <source-id> <tier>",
	Short: "Revise a source's credibility tier",
	Long: `Revise moves a source to a different tier and records the change in the
audit log. Existing links keep the tier they were created under; only new
claims from the source see the revised tier.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil || !model.Tier(n).Valid() {
			return fmt.Errorf("tier must be 1-4")
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.store.ReviseSourceTier(args[0], model.Tier(n), reviseReason); err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", args[0], model.Tier(n))
		return nil
	},
}

func init() {
	sourcesReviseCmd.Flags().StringVar(&reviseReason, "reason", "", "why the tier is being revised")
	_ = sourcesReviseCmd.MarkFlagRequired("reason")

	sourcesCmd.AddCommand(sourcesListCmd, sourcesReviseCmd)
	rootCmd.AddCommand(sourcesCmd)
}
