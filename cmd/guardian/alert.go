package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/alert"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Manage safeguarding alerts",
}

var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts for the tenant",
	RunE:  runAlertList,
}

var alertReviewCmd = &cobra.Command{
	Use:   "review ALERT_ID",
	Short: "Mark an alert reviewed or closed",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertReview,
}

var (
	alertStatusFilter string
	alertSetStatus    string
)

func init() {
	alertListCmd.Flags().StringVar(&alertStatusFilter, "status", "", "Filter by status (new, reviewed, closed)")
	alertReviewCmd.Flags().StringVar(&alertSetStatus, "set", "reviewed", "Status to set (reviewed, closed)")
	alertCmd.AddCommand(alertListCmd)
	alertCmd.AddCommand(alertReviewCmd)
}

func runAlertList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var status *alert.Status
	if alertStatusFilter != "" {
		s := alert.Status(alertStatusFilter)
		status = &s
	}

	alerts, err := a.alerts.List(cmd.Context(), flagTenant, status)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTARGET\tSTATUS\tCREATED\tDETAILS")
	for _, al := range alerts {
		statusText := string(al.Status)
		if al.Status == alert.StatusNew {
			statusText = color.RedString(statusText)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.60s\n",
			al.ID, al.Type, al.TargetID, statusText,
			al.CreatedAt.Format(time.RFC3339), al.Details)
	}
	return w.Flush()
}

func runAlertReview(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := types.ParseID(args[0])
	if err != nil {
		return err
	}
	if err := a.alerts.UpdateStatus(cmd.Context(), id, alert.Status(alertSetStatus)); err != nil {
		return err
	}
	cmd.Printf("Alert %s marked %s\n", id, alertSetStatus)
	return nil
}
