package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/stakeflow/stakeflow-indexer/internal/cache"
	"github.com/stakeflow/stakeflow-indexer/internal/clients/tzktclient"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/tracing"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
)

// Dashboard is everything the presentation layer renders for one load.
type Dashboard struct {
	GeneratedAt time.Time            `json:"generated_at"`
	TraceID     string               `json:"trace_id"`
	Daily       *DailyFlows          `json:"daily"`
	Summary     Summary              `json:"summary"`
	Wallets     []*WalletStats       `json:"wallets"`
	Audit       ReconciliationReport `json:"audit"`
}

// LoadDashboard runs one full load cycle and returns the result without
// storing it. Only a failed feed fetch is returned as an error.
func (s *Service) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	startTime := time.Now()
	bakeryOps, proxyTxs, err := s.fetchFeeds(ctx)
	if err != nil {
		return nil, err
	}

	ops := NormalizeBakeryOperations(ctx, bakeryOps)
	proxyOps, requests := NormalizeProxyTransactions(ctx, proxyTxs, s.cfg.Resolver.DerivativeAmountField)

	amounts := cache.Load(ctx, s.db)
	// amounts resolved before a cancelled pass are kept too
	defer s.persistCache(ctx, amounts)

	resolver := NewWithdrawalResolver(&s.cfg.Resolver, s.tzkt, amounts)
	withdrawals, err := resolver.ResolveAll(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve withdrawal requests: %w", err)
	}

	proxyOps = append(proxyOps, withdrawals...)
	ops = append(ops, proxyOps...)

	audit := AuditWithdrawals(
		proxyAmounts(ops, types.KindUnstake),
		proxyAmounts(ops, types.KindFinalize),
		s.cfg.Resolver.MatchTolerance,
	)
	metrics.RecordReconciliation(audit.Matched, audit.Unmatched)
	if audit.Unmatched > 0 {
		log.Info().
			Int("unmatched", audit.Unmatched).
			Floats64("unmatched_amounts", audit.UnmatchedAmounts).
			Msg("finalizations without a matching withdrawal request")
	}

	balances := s.fetchHolderBalances(ctx)
	wallets := AggregateWallets(ops, balances)

	dashboard := &Dashboard{
		GeneratedAt: time.Now().UTC(),
		TraceID:     tracing.TraceID(ctx),
		Daily:       AggregateDaily(ops),
		Summary:     Summarize(ops, wallets, balances),
		Wallets:     wallets,
		Audit:       audit,
	}

	log.Info().
		Int("bakery_operations", dashboard.Summary.Bakery.OperationCount).
		Int("proxy_operations", dashboard.Summary.Proxy.OperationCount).
		Int("withdrawal_requests", len(requests)).
		Int("days", len(dashboard.Daily.Dates)).
		Int("wallets", len(wallets)).
		Int("reconciled", audit.Matched).
		Dur("duration", time.Since(startTime)).
		Msg("dashboard loaded")

	return dashboard, nil
}

func (s *Service) persistCache(ctx context.Context, amounts *cache.WithdrawalCache) {
	if err := amounts.Persist(context.WithoutCancel(ctx), s.db); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("discarding withdrawal cache update")
	}
	metrics.RecordWithdrawalCacheSize(amounts.Len())
}

// fetchFeeds fetches both feeds concurrently; the first failure cancels the
// other fetch and aborts the load.
func (s *Service) fetchFeeds(ctx context.Context) ([]tzktclient.StakingOperation, []tzktclient.Transaction, error) {
	var (
		bakeryOps []tzktclient.StakingOperation
		proxyTxs  []tzktclient.Transaction
	)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		ops, err := s.tzkt.GetBakerOperations(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch bakery feed: %w", err)
		}
		bakeryOps = ops
		return nil
	})
	p.Go(func(ctx context.Context) error {
		txs, err := s.tzkt.GetProxyTransactions(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch proxy feed: %w", err)
		}
		proxyTxs = txs
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}

	log.Ctx(ctx).Debug().
		Int("bakery_operations", len(bakeryOps)).
		Int("proxy_transactions", len(proxyTxs)).
		Msg("feeds fetched")
	return bakeryOps, proxyTxs, nil
}

// fetchHolderBalances is best effort, the leaderboard renders without balances.
func (s *Service) fetchHolderBalances(ctx context.Context) map[string]float64 {
	holders, err := s.tzkt.GetTokenHolders(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to fetch token holders, balances left empty")
		return map[string]float64{}
	}
	return HolderBalances(ctx, holders)
}

// Refresh runs a load cycle and makes its result the latest dashboard. On
// failure the previous dashboard is kept and the error is remembered.
func (s *Service) Refresh(ctx context.Context) (*Dashboard, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	dashboard, err := s.LoadDashboard(ctx)
	if err != nil {
		metrics.IncLoadFailures()
		log.Ctx(ctx).Error().Err(err).Msg("dashboard load failed")

		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.latest = dashboard
	s.lastErr = nil
	s.mu.Unlock()
	metrics.RecordSuccessfulLoad(dashboard.GeneratedAt)

	s.persistStats(ctx, dashboard)
	if s.publisher != nil {
		s.publisher.Publish(dashboard)
	}
	return dashboard, nil
}

func (s *Service) persistStats(ctx context.Context, dashboard *Dashboard) {
	if err := s.db.UpsertDashboardStats(ctx, dashboard.Summary.toStatsDocument()); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to persist dashboard stats")
	}
	if err := s.db.ReplaceWalletStats(ctx, walletStatsDocuments(dashboard.Wallets)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to persist wallet stats")
	}
}
