package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Inspect and update the indicator catalog",
}

var indicatorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indicators with current progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		indicators, err := app.query.Indicators()
		if err != nil {
			return err
		}

		for _, ip := range indicators {
			note := ""
			if !ip.FirstClass {
				note = "  (monitor-only)"
			}
			if ip.Degenerate {
				note = "  (degenerate: baseline == target)"
			}
			fmt.Printf("%-14s %-12s progress %.3f  current %.2f -> target %.2f%s\n",
				ip.Code, ip.Category, ip.Progress, ip.Current, ip.Target, note)
		}
		return nil
	},
}

var indicatorsSetCmd = &cobra.Command{
	Use:   "set <code> <current-value>",
	Short: "Set an indicator's current value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("value must be numeric: %w", err)
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.store.SetIndicatorCurrent(args[0], value); err != nil {
			return err
		}
		app.query.Invalidate()

		fmt.Printf("%s current = %v\n", args[0], value)
		return nil
	},
}

func init() {
	indicatorsCmd.AddCommand(indicatorsListCmd, indicatorsSetCmd)
	rootCmd.AddCommand(indicatorsCmd)
}
