package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/waymark-project/waymark/internal/model"
)

var (
	scorePreset   string
	scoreSnapshot bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the current index",
	Long: `Score aggregates indicator progress into category scores and the
overall index using the selected weighting preset. With --snapshot the
result is persisted as an immutable record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		var set *model.ScoreSet
		if scoreSnapshot {
			snap, err := app.engine.Snapshot(scorePreset)
			if err != nil {
				return err
			}
			set = &snap.ScoreSet
			fmt.Printf("Snapshot %s recorded\n\n", snap.ID)
		} else {
			set, err = app.engine.ComputePreset(scorePreset)
			if err != nil {
				return err
			}
		}

		printScoreSet(set)
		return nil
	},
}

func printScoreSet(set *model.ScoreSet) {
	fmt.Printf("Preset: %s\n\n", set.Preset)
	for _, cs := range set.Categories {
		status := fmt.Sprintf("%.3f", cs.Score)
		if cs.Insufficient {
			status = "insufficient evidence"
		}
		extra := ""
		if cs.Degenerate > 0 {
			extra = fmt.Sprintf("  (%d degenerate excluded)", cs.Degenerate)
		}
		fmt.Printf("  %-12s %s%s\n", titleCase(string(cs.Category)), status, extra)
	}

	fmt.Println()
	if set.Insufficient {
		fmt.Println("Overall: insufficient evidence")
		fmt.Println("The index stays withheld until a foundational category has final evidence.")
	} else {
		fmt.Printf("Overall: %.3f  (band %.3f - %.3f)\n", set.Overall, set.Band.Lower, set.Band.Upper)
	}
	fmt.Printf("Safety margin: %+.3f\n", set.SafetyMargin)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func init() {
	scoreCmd.Flags().StringVar(&scorePreset, "preset", model.PresetEqual, "weighting preset (equal, expert)")
	scoreCmd.Flags().BoolVar(&scoreSnapshot, "snapshot", false, "persist the result as a snapshot")
	rootCmd.AddCommand(scoreCmd)
}
