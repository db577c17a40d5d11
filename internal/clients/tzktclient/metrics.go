package tzktclient

import (
	"context"
	"time"

	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
	"github.com/stakeflow/stakeflow-indexer/internal/utils/valuetree"
)

type tzktClientWithMetrics struct {
	tzkt TzktInterface
}

func NewTzktClientWithMetrics(tzkt TzktInterface) TzktInterface {
	return &tzktClientWithMetrics{tzkt: tzkt}
}

func (t *tzktClientWithMetrics) GetBakerOperations(ctx context.Context) ([]StakingOperation, error) {
	return runTzktClientMethodWithMetrics("GetBakerOperations", func() ([]StakingOperation, error) {
		return t.tzkt.GetBakerOperations(ctx)
	})
}

func (t *tzktClientWithMetrics) GetProxyTransactions(ctx context.Context) ([]Transaction, error) {
	return runTzktClientMethodWithMetrics("GetProxyTransactions", func() ([]Transaction, error) {
		return t.tzkt.GetProxyTransactions(ctx)
	})
}

func (t *tzktClientWithMetrics) GetTransactionDetail(ctx context.Context, hash string, counter int64) (valuetree.Node, error) {
	return runTzktClientMethodWithMetrics("GetTransactionDetail", func() (valuetree.Node, error) {
		return t.tzkt.GetTransactionDetail(ctx, hash, counter)
	})
}

func (t *tzktClientWithMetrics) GetTokenHolders(ctx context.Context) ([]TokenBalance, error) {
	return runTzktClientMethodWithMetrics("GetTokenHolders", func() ([]TokenBalance, error) {
		return t.tzkt.GetTokenHolders(ctx)
	})
}

func runTzktClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordTzktClientLatency(duration, method, err != nil)
	return v, err
}
