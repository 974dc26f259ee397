package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/guardian"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate TRIGGER_EVENT",
	Short: "Evaluate content against the guardrails for a trigger",
	Long: `Run an ad hoc evaluation, reading the content from --content or
stdin. Exits non-zero when the action would be blocked.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

var (
	evalContent  string
	evalActor    string
	evalResource string
	evalTarget   string
	evalConsent  bool
	evalJSON     bool
)

func init() {
	evaluateCmd.Flags().StringVar(&evalContent, "content", "", "Content to scan (default: read stdin)")
	evaluateCmd.Flags().StringVar(&evalActor, "actor", "", "Acting user id")
	evaluateCmd.Flags().StringVar(&evalResource, "resource", "", "Resource id the action concerns")
	evaluateCmd.Flags().StringVar(&evalTarget, "target", "", "Target id for escalations")
	evaluateCmd.Flags().BoolVar(&evalConsent, "consent", false, "Consent recorded for the subject")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "Emit the decision as JSON")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	content := evalContent
	if content == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	}

	decision, err := a.guardian.Evaluate(cmd.Context(), args[0], content, guardian.EvalContext{
		TenantID:        flagTenant,
		ActorID:         evalActor,
		ResourceID:      evalResource,
		TargetID:        evalTarget,
		ConsentRecorded: evalConsent,
	})
	if err != nil {
		return err
	}

	if evalJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(decision); err != nil {
			return err
		}
	} else {
		for _, f := range decision.Findings {
			cmd.Printf("[%s] %s: %s\n", f.Severity, f.Type, f.Message)
		}
		for _, r := range decision.Remediation {
			cmd.Printf("remediation: %s\n", r)
		}
		if decision.Blocked {
			color.Red("BLOCKED")
		} else {
			color.Green("ALLOWED")
		}
	}

	if decision.Blocked {
		return fmt.Errorf("action blocked by %d finding(s)", len(decision.Findings))
	}
	return nil
}
