package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/stakeflow/stakeflow-indexer/internal/clients/tzktclient"
	"github.com/stakeflow/stakeflow-indexer/internal/config"
	"github.com/stakeflow/stakeflow-indexer/internal/db"
	dbmodel "github.com/stakeflow/stakeflow-indexer/internal/db/model"
	"github.com/stakeflow/stakeflow-indexer/internal/services"
)

const (
	defaultConfigFileName = "config.yml"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:           "stakeflow",
		Short:         "Staking and liquid staking flow dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Setup() error {
	homePath, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	defaultConfigPath := getDefaultConfigFile(homePath, defaultConfigFileName)

	rootCmd.AddCommand(StartServerCmd())
	rootCmd.AddCommand(DumpFlowsCmd())
	rootCmd.AddCommand(AuditWithdrawalsCmd())
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, fmt.Sprintf("config file (default %s)", defaultConfigPath))
	if err := rootCmd.Execute(); err != nil {
		return err
	}

	return nil
}

func getDefaultConfigFile(homePath, filename string) string {
	return filepath.Join(homePath, filename)
}

func GetConfigPath() string {
	return cfgPath
}

// loadConfig reads the config file and applies its log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return nil, fmt.Errorf("error while loading config file %s: %w", GetConfigPath(), err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(level)

	return cfg, nil
}

// newService wires the store and the block explorer client into the load pipeline.
func newService(ctx context.Context, cfg *config.Config) (*services.Service, error) {
	if cfg.Db.Type == config.DbTypeMongo {
		if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
			return nil, fmt.Errorf("error while setting up db model: %w", err)
		}
	}

	var dbClient db.DbInterface
	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return nil, fmt.Errorf("error while creating db client: %w", err)
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	if err := dbClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("db is not reachable: %w", err)
	}

	var tzktClient tzktclient.TzktInterface = tzktclient.NewClient(&cfg.Tzkt)
	tzktClient = tzktclient.NewTzktClientWithMetrics(tzktClient)

	log.Ctx(ctx).Debug().
		Str("db_type", cfg.Db.Type).
		Str("tzkt_url", cfg.Tzkt.URL).
		Msg("service dependencies ready")

	return services.NewService(cfg, dbClient, tzktClient), nil
}
