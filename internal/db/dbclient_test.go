//go:build integration

package db_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stakeflow/stakeflow-indexer/internal/config"
	"github.com/stakeflow/stakeflow-indexer/internal/db"
	"github.com/stakeflow/stakeflow-indexer/internal/db/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mongoUsername = "user"
	mongoPassword = "password"
	mongoDatabase = "test-database"

	// this version corresponds to docker tag for mongodb
	mongoVersion = "7.0.5"
)

var (
	testDB  *db.Database
	testCfg *config.DbConfig
)

func TestMain(m *testing.M) {
	dbConfig, cleanup, err := setupMongoContainer()
	if err != nil {
		log.Fatalf("failed to setup mongo container: %v", err)
	}

	err = model.Setup(context.Background(), dbConfig)
	if err != nil {
		cleanup()
		log.Fatalf("failed to init mongo database: %v", err)
	}

	testDB, err = setupClient(dbConfig)
	if err != nil {
		cleanup()
		log.Fatalf("failed to setup client: %v", err)
	}
	testCfg = dbConfig

	code := m.Run()
	cleanup()

	os.Exit(code)
}

// setupMongoContainer setups container with mongodb returning db credentials through config.DbConfig,
// cleanup function that MUST be called in the end to cleanup docker resources and an error if there is any
func setupMongoContainer() (*config.DbConfig, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, err
	}

	// there can be only 1 container with the same name, so we add
	// random string in the end in case there is still old container running
	containerName := "mongo-integration-tests-db-" + strings.ToLower(gofakeit.LetterN(3))
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Name:       containerName,
		Repository: "mongo",
		Tag:        mongoVersion,
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=" + mongoUsername,
			"MONGO_INITDB_ROOT_PASSWORD=" + mongoPassword,
			"MONGO_INITDB_DATABASE=" + mongoDatabase,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		err := pool.Purge(resource)
		if err != nil {
			log.Fatalf("failed to purge resource: %v", err)
		}
	}

	hostPort := resource.GetPort("27017/tcp")
	cfg := &config.DbConfig{
		Type:     config.DbTypeMongo,
		Username: mongoUsername,
		Password: mongoPassword,
		DbName:   mongoDatabase,
		Address:  fmt.Sprintf("mongodb://localhost:%s/", hostPort),
	}

	// mongo takes a moment to accept connections after the container starts
	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := db.NewMongoDatabase(ctx, *cfg)
		if err != nil {
			return err
		}
		return client.Ping(ctx)
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return cfg, cleanup, nil
}

func setupClient(cfg *config.DbConfig) (*db.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.NewMongoDatabase(ctx, *cfg)
}

func TestMongo_KeyValue(t *testing.T) {
	ctx := t.Context()

	t.Run("not found", func(t *testing.T) {
		value, err := testDB.GetKeyValue(ctx, "missing")
		assert.True(t, db.IsNotFoundError(err))
		assert.Empty(t, value)
	})
	t.Run("ok", func(t *testing.T) {
		for _, value := range []string{`{"a-1":1}`, `{"a-1":1,"b-2":2}`} {
			require.NoError(t, testDB.SaveKeyValue(ctx, "withdrawal-amounts", value))

			found, err := testDB.GetKeyValue(ctx, "withdrawal-amounts")
			require.NoError(t, err)
			assert.Equal(t, value, found)
		}
	})
}

func TestMongo_Stats(t *testing.T) {
	ctx := t.Context()

	stats := &model.DashboardStatsDocument{
		Bakery: model.SourceStats{TotalStake: 5, NetStaked: 5, OperationCount: 1},
	}
	require.NoError(t, testDB.UpsertDashboardStats(ctx, stats))
	require.NoError(t, testDB.UpsertDashboardStats(ctx, stats))

	rows := []*model.WalletStatsDocument{
		{Address: "tz1a", NetPosition: 2, Rank: 1},
		{Address: "tz1b", NetPosition: 1, Rank: 2},
	}
	require.NoError(t, testDB.ReplaceWalletStats(ctx, rows))
	require.NoError(t, testDB.ReplaceWalletStats(ctx, rows[:1]))

	store, err := db.New(ctx, *testCfg)
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))

	count, err := testDB.CountDocuments(ctx, model.WalletStatsCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = testDB.CountDocuments(ctx, model.DashboardStatsCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
