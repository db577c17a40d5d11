package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/stakeflow/stakeflow-indexer/internal/api"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/tracing"
	"github.com/stakeflow/stakeflow-indexer/internal/services"
)

const shutdownTimeout = 10 * time.Second

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the dashboard API and the periodic refresh",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error while loading config")
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	service, err := newService(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating service")
	}

	hub := api.NewHub(func() *services.Dashboard {
		dashboard, _ := service.LatestDashboard()
		return dashboard
	})
	service.SetPublisher(hub)

	// a failed first load is served as an error until the next refresh succeeds
	if _, err := service.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("initial dashboard load failed")
	}
	service.StartRefreshPoller(ctx)

	server := api.New(&cfg.Server, service, hub)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
