package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/rule"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage guardrail rules",
	Long:  `List, import, and retire versioned guardrail rules`,
}

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules for the tenant",
	RunE:  runRuleList,
}

var ruleImportCmd = &cobra.Command{
	Use:   "import PACK_ID",
	Short: "Import a jurisdiction starter pack",
	Long: `Import a jurisdiction starter pack (e.g. "uk", "eu-gdpr") for the
tenant. Each pack rule is published as a fresh version 1 lineage in live
rollout. Import is best effort: a malformed rule is reported but does not
abort the rest.`,
	Args: cobra.ExactArgs(1),
	RunE: runRuleImport,
}

var ruleRetireCmd = &cobra.Command{
	Use:   "retire RULE_ID",
	Short: "Retire the active version of a rule lineage",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuleRetire,
}

var listActiveOnly bool

func init() {
	ruleListCmd.Flags().BoolVar(&listActiveOnly, "active", false, "Show only active versions")
	ruleCmd.AddCommand(ruleListCmd)
	ruleCmd.AddCommand(ruleImportCmd)
	ruleCmd.AddCommand(ruleRetireCmd)
}

func runRuleList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	rules, err := a.rules.ListRules(cmd.Context(), flagTenant)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVER\tSTATUS\tTRIGGER\tCONDITION\tMODE\tROLLOUT\tJURISDICTION")
	for _, r := range rules {
		if listActiveOnly && r.Status != rule.StatusActive {
			continue
		}
		status := string(r.Status)
		if r.Status == rule.StatusActive {
			status = color.GreenString(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, r.Version, status,
			r.TriggerEvent, r.TriggerCondition, r.Mode, r.RolloutMode, r.Jurisdiction)
	}
	return w.Flush()
}

func runRuleImport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := rule.ImportPack(cmd.Context(), a.rules, args[0], flagTenant)
	if err != nil {
		return err
	}

	cmd.Printf("Published %d rules\n", len(result.Published))
	for _, failure := range result.Failed {
		color.Red("  failed: %s (#%d): %s", failure.RuleName, failure.Index, failure.Message)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d rules failed to import",
			len(result.Failed), len(result.Published)+len(result.Failed))
	}
	return nil
}

func runRuleRetire(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := types.ParseID(args[0])
	if err != nil {
		return err
	}
	if err := a.rules.Retire(cmd.Context(), id); err != nil {
		return err
	}
	cmd.Printf("Retired rule %s\n", id)
	return nil
}
