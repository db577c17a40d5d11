package db

import (
	"context"
	"fmt"

	"github.com/stakeflow/stakeflow-indexer/internal/config"
)

// New opens the store selected by cfg.Type.
func New(ctx context.Context, cfg config.DbConfig) (DbInterface, error) {
	switch cfg.Type {
	case config.DbTypeMongo:
		return NewMongoDatabase(ctx, cfg)
	case config.DbTypeSQLite, "":
		return NewSQLiteDatabase(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported db type %q", cfg.Type)
	}
}
