package db

import (
	"context"

	"github.com/stakeflow/stakeflow-indexer/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error
	// GetKeyValue returns NotFoundError when key was never saved.
	GetKeyValue(ctx context.Context, key string) (string, error)
	SaveKeyValue(ctx context.Context, key, value string) error
	UpsertDashboardStats(ctx context.Context, stats *model.DashboardStatsDocument) error
	// ReplaceWalletStats drops every stored wallet row before inserting rows.
	ReplaceWalletStats(ctx context.Context, rows []*model.WalletStatsDocument) error
}
