package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
)

func AuditWithdrawalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit-withdrawals",
		Short: "Runs one load cycle and prints how finalizations reconcile with withdrawal requests",
		Args:  cobra.ExactArgs(0),
		RunE:  auditWithdrawals,
	}

	return cmd
}

func auditWithdrawals(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	metrics.Register()

	service, err := newService(ctx, cfg)
	if err != nil {
		return err
	}

	dashboard, err := service.LoadDashboard(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}

	report := dashboard.Audit
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "finalizations: %d\n", report.Total)
	fmt.Fprintf(w, "matched:       %d\n", report.Matched)
	fmt.Fprintf(w, "unmatched:     %d\n", report.Unmatched)
	fmt.Fprintf(w, "tolerance:     %g\n", report.Tolerance)
	for _, amount := range report.UnmatchedAmounts {
		fmt.Fprintf(w, "  unmatched finalization %.6f\n", amount)
	}
	fmt.Fprintf(w, "outstanding withdrawal requests: %d\n", len(report.Outstanding))
	for _, amount := range report.Outstanding {
		fmt.Fprintf(w, "  outstanding %.6f\n", amount)
	}

	return nil
}
