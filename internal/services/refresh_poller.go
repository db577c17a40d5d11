package services

import (
	"context"

	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
	"github.com/stakeflow/stakeflow-indexer/internal/utils/poller"
)

// StartRefreshPoller reloads the dashboard every refresh interval
func (s *Service) StartRefreshPoller(ctx context.Context) {
	refreshPoller := poller.NewPoller(
		"dashboard-refresh",
		s.cfg.Poller.RefreshInterval,
		metrics.RecordPollerDuration("dashboard_refresh", func(ctx context.Context) error {
			_, err := s.Refresh(ctx)
			return err
		}),
	)
	go refreshPoller.Start(ctx)
}
