package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit <entity> <id>",
	Short: "Show the audit trail for an entity",
	Long: `Audit lists the recorded actions for one entity, oldest first.
Entities: claim, source.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		entries, err := app.store.AuditTrail(args[0], args[1])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-12s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.Detail)
		}
		return nil
	},
}

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show today's generative-model spend",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		st := app.query.BudgetStatus()
		fmt.Printf("Day:      %s\n", st.Day)
		fmt.Printf("Spent:    $%.2f of $%.2f\n", st.SpentUSD, st.CeilingUSD)
		if st.Exhausted {
			fmt.Println("Status:   EXHAUSTED (deterministic-only until the next UTC day)")
		} else if st.Warning {
			fmt.Println("Status:   warning threshold crossed")
		} else {
			fmt.Println("Status:   ok")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd, budgetCmd)
}
