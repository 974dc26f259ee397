package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/rule"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Report conflicting active rules for the tenant",
	Long: `Scan the tenant's active rules for operator-actionable conflicts:
blocking rules with contradictory remediation, and simulated rules shadowed
by live ones. Purely advisory; nothing is blocked or changed.`,
	RunE: runConflicts,
}

func runConflicts(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	auditor := rule.NewConflictAuditor(a.rules)
	conflicts, err := auditor.DetectConflicts(cmd.Context(), flagTenant)
	if err != nil {
		return err
	}

	if len(conflicts) == 0 {
		cmd.Println("No conflicts found")
		return nil
	}

	for _, c := range conflicts {
		color.Yellow("[%s]", c.Kind)
		cmd.Printf("  %s\n", c.Description)
	}
	return nil
}
