package db

import (
	"context"
	"time"

	"github.com/stakeflow/stakeflow-indexer/internal/db/model"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) GetKeyValue(ctx context.Context, key string) (result string, err error) {
	//nolint:errcheck
	d.run("GetKeyValue", func() error {
		result, err = d.db.GetKeyValue(ctx, key)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveKeyValue(ctx context.Context, key, value string) error {
	return d.run("SaveKeyValue", func() error {
		return d.db.SaveKeyValue(ctx, key, value)
	})
}

func (d *DbWithMetrics) UpsertDashboardStats(ctx context.Context, stats *model.DashboardStatsDocument) error {
	return d.run("UpsertDashboardStats", func() error {
		return d.db.UpsertDashboardStats(ctx, stats)
	})
}

func (d *DbWithMetrics) ReplaceWalletStats(ctx context.Context, rows []*model.WalletStatsDocument) error {
	return d.run("ReplaceWalletStats", func() error {
		return d.db.ReplaceWalletStats(ctx, rows)
	})
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
