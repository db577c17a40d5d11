package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stakeflow/stakeflow-indexer/internal/db/model"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ` + model.KeyValueCollection + ` (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		last_updated INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + model.DashboardStatsCollection + ` (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		last_updated INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + model.WalletStatsCollection + ` (
		address TEXT PRIMARY KEY,
		total_deposited REAL NOT NULL,
		total_withdrawn REAL NOT NULL,
		total_finalized REAL NOT NULL,
		deposit_count INTEGER NOT NULL,
		withdraw_count INTEGER NOT NULL,
		finalize_count INTEGER NOT NULL,
		net_position REAL NOT NULL,
		current_balance REAL NOT NULL,
		first_activity INTEGER NOT NULL,
		last_activity INTEGER NOT NULL,
		leaderboard_rank INTEGER NOT NULL
	)`,
}

// SQLiteDatabase is the process-local store used when no mongo instance is configured.
type SQLiteDatabase struct {
	db *sql.DB
}

func NewSQLiteDatabase(ctx context.Context, path string) (*SQLiteDatabase, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// single connection, writes from the poller and manual refreshes are serialized
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to set sqlite WAL mode")
	}

	for _, stmt := range sqliteSchema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
		}
	}

	return &SQLiteDatabase{db: conn}, nil
}

func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

func (s *SQLiteDatabase) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDatabase) GetKeyValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM `+model.KeyValueCollection+` WHERE name = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", &NotFoundError{
				Key:     key,
				Message: "key not found: " + key,
			}
		}
		return "", err
	}
	return value, nil
}

func (s *SQLiteDatabase) SaveKeyValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+model.KeyValueCollection+` (name, value, last_updated) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, last_updated = excluded.last_updated`,
		key, value, time.Now().Unix(),
	)
	return err
}

func (s *SQLiteDatabase) UpsertDashboardStats(ctx context.Context, stats *model.DashboardStatsDocument) error {
	doc := *stats
	doc.LastUpdated = time.Now().Unix()

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard stats: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+model.DashboardStatsCollection+` (id, payload, last_updated) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, last_updated = excluded.last_updated`,
		model.DashboardStatsID, string(payload), doc.LastUpdated,
	)
	return err
}

func (s *SQLiteDatabase) ReplaceWalletStats(ctx context.Context, rows []*model.WalletStatsDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	//nolint:errcheck
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+model.WalletStatsCollection); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+model.WalletStatsCollection+` (
		address, total_deposited, total_withdrawn, total_finalized,
		deposit_count, withdraw_count, finalize_count,
		net_position, current_balance, first_activity, last_activity, leaderboard_rank
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.Address, row.TotalDeposited, row.TotalWithdrawn, row.TotalFinalized,
			row.DepositCount, row.WithdrawCount, row.FinalizeCount,
			row.NetPosition, row.CurrentBalance, row.FirstActivity, row.LastActivity, row.Rank,
		)
		if err != nil {
			return fmt.Errorf("failed to insert wallet %s: %w", row.Address, err)
		}
	}

	return tx.Commit()
}
