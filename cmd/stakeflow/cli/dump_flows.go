package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
)

func DumpFlowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-flows",
		Short: "Runs one load cycle and writes the dashboard as JSON",
		Args:  cobra.ExactArgs(0),
		RunE:  dumpFlows,
	}

	cmd.Flags().String("out", "", "Output file, stdout when empty")

	return cmd
}

func dumpFlows(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	metrics.Register()

	service, err := newService(ctx, cfg)
	if err != nil {
		return err
	}

	dashboard, err := service.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dashboard); err != nil {
		return fmt.Errorf("failed to write dashboard: %w", err)
	}

	if out != "" {
		log.Info().Str("file", out).Int("days", len(dashboard.Daily.Dates)).Msg("dashboard written")
	}
	return nil
}
