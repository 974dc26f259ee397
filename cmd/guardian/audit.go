package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries for the tenant",
	RunE:  runAuditList,
}

var (
	auditAction   string
	auditResource string
	auditSince    string
	auditLimit    int
)

func init() {
	auditListCmd.Flags().StringVar(&auditAction, "action", "", "Filter by action (trigger event)")
	auditListCmd.Flags().StringVar(&auditResource, "resource", "", "Filter by resource id")
	auditListCmd.Flags().StringVar(&auditSince, "since", "", "Only entries after this RFC3339 timestamp")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum entries to show")
	auditCmd.AddCommand(auditListCmd)
}

func runAuditList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	filter := audit.NewFilter(flagTenant).WithLimit(auditLimit)
	if auditAction != "" {
		filter = filter.WithAction(auditAction)
	}
	if auditResource != "" {
		filter.ResourceID = auditResource
	}
	if auditSince != "" {
		since, err := time.Parse(time.RFC3339, auditSince)
		if err != nil {
			return fmt.Errorf("invalid --since timestamp: %w", err)
		}
		filter.From = &since
	}

	entries, err := a.audits.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tACTOR\tRESOURCE\tBLOCKED")
	for _, e := range entries {
		blocked := "-"
		if b, ok := e.Metadata["blocked"].(bool); ok {
			blocked = fmt.Sprintf("%t", b)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.Action, e.ActorID, e.ResourceID, blocked)
	}
	return w.Flush()
}
