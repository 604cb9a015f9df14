package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/store"
)

var (
	claimsLimit            int
	claimsTier             int
	claimsIncludeRetracted bool
)

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Inspect stored claims",
}

var claimsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent claims, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		filter := store.ClaimFilter{
			Limit:            claimsLimit,
			IncludeRetracted: claimsIncludeRetracted,
		}
		if claimsTier != 0 {
			if !model.Tier(claimsTier).Valid() {
				return fmt.Errorf("invalid tier %d", claimsTier)
			}
			filter.Tier = model.Tier(claimsTier)
		}

		claims, err := app.query.RecentClaims(filter)
		if err != nil {
			return err
		}
		printClaims(claims)
		return nil
	},
}

var claimsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search claim titles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		claims, err := app.query.SearchClaims(args[0], claimsLimit)
		if err != nil {
			return err
		}
		printClaims(claims)
		return nil
	},
}

var claimsShowCmd = &cobra.Command{
	Use:   "show <claim-id>",
	Short: "Show one claim with its indicator links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		claim, links, err := app.query.ClaimLinks(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", claim.Title)
		fmt.Printf("  id:        %s\n", claim.ID)
		fmt.Printf("  source:    %s (%s)\n", claim.SourceID, claim.Tier)
		fmt.Printf("  published: %s\n", claim.PublishedAt.Format("2006-01-02"))
		if claim.URL != "" {
			fmt.Printf("  url:       %s\n", claim.URL)
		}
		if claim.Retracted {
			fmt.Printf("  RETRACTED: %s\n", claim.RetractReason)
		}

		if len(links) == 0 {
			fmt.Println("\n  unmapped")
			return nil
		}
		fmt.Println()
		for _, l := range links {
			state := "final"
			if l.Provisional {
				state = "provisional"
			}
			review := ""
			if l.NeedsReview {
				review = "  [review]"
			}
			fmt.Printf("  %-14s %-11s %s conf=%.2f%s\n", l.IndicatorCode, state, l.Relation, l.Confidence, review)
		}
		return nil
	},
}

func printClaims(claims []model.Claim) {
	if len(claims) == 0 {
		fmt.Println("No claims found")
		return
	}
	for _, c := range claims {
		flag := ""
		if c.Retracted {
			flag = "  [retracted]"
		}
		fmt.Printf("%s  %-10s  %s  %s%s\n",
			c.PublishedAt.Format("2006-01-02"), c.Tier, c.ID[:8], c.Title, flag)
	}
}

func init() {
	claimsCmd.PersistentFlags().IntVar(&claimsLimit, "limit", 20, "maximum results")
	claimsListCmd.Flags().IntVar(&claimsTier, "tier", 0, "filter by tier (1-4)")
	claimsListCmd.Flags().BoolVar(&claimsIncludeRetracted, "include-retracted", false, "include retracted claims")

	claimsCmd.AddCommand(claimsListCmd, claimsSearchCmd, claimsShowCmd)
	rootCmd.AddCommand(claimsCmd)
}
