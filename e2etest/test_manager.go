package e2etest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stakeflow/stakeflow-indexer/internal/api"
	"github.com/stakeflow/stakeflow-indexer/internal/clients/tzktclient"
	"github.com/stakeflow/stakeflow-indexer/internal/config"
	"github.com/stakeflow/stakeflow-indexer/internal/db"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
	"github.com/stakeflow/stakeflow-indexer/internal/services"
	"github.com/stretchr/testify/require"
)

const (
	bakerAddress  = "tz1aWXP237BLwNHJcCD4b3DutCevhqq2T1Z9"
	proxyContract = "KT1TxqZ8QtKvLu3V3JH7Gx58n7Co8pgtpQU5"
	tokenContract = "KT1Ha4yFVeyzw6KRAdkzq6TxDHB97KG4pZe8"
)

var (
	eventuallyWaitTimeOut = 5 * time.Second
	eventuallyPollTime    = 20 * time.Millisecond
)

type TestManager struct {
	Explorer *Explorer
	Config   *config.Config
	DbClient db.DbInterface
	Service  *services.Service
	Hub      *api.Hub
	Server   *httptest.Server
}

// StartManager wires the indexer against the given explorer with a sqlite
// store in a temporary directory and serves the API over httptest.
func StartManager(t *testing.T, explorer *Explorer) *TestManager {
	cfg := DefaultIndexerConfig(t, explorer.Server.URL)
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	dbClient, err := db.New(ctx, cfg.Db)
	require.NoError(t, err)
	dbClient = db.NewDbWithMetrics(dbClient)
	require.NoError(t, dbClient.Ping(ctx))

	var tzktClient tzktclient.TzktInterface = tzktclient.NewClient(&cfg.Tzkt)
	tzktClient = tzktclient.NewTzktClientWithMetrics(tzktClient)

	metrics.Init(cfg.Metrics.GetMetricsPort())

	service := services.NewService(cfg, dbClient, tzktClient)
	hub := api.NewHub(func() *services.Dashboard {
		dashboard, _ := service.LatestDashboard()
		return dashboard
	})
	service.SetPublisher(hub)

	server := httptest.NewServer(api.New(&cfg.Server, service, hub).Router())
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	return &TestManager{
		Explorer: explorer,
		Config:   cfg,
		DbClient: dbClient,
		Service:  service,
		Hub:      hub,
		Server:   server,
	}
}

func DefaultIndexerConfig(t *testing.T, explorerURL string) *config.Config {
	resolver := config.DefaultResolverConfig()
	resolver.StaggerInterval = 5 * time.Millisecond
	resolver.BatchPause = 10 * time.Millisecond

	return &config.Config{
		LogLevel: "debug",
		Tzkt: config.TzktConfig{
			URL:           explorerURL,
			PageSize:      2,
			MaxRetryTimes: 3,
			RetryInterval: 10 * time.Millisecond,
			BakerAddress:  bakerAddress,
			ProxyContract: proxyContract,
			TokenContract: tokenContract,
		},
		Resolver: *resolver,
		Db: config.DbConfig{
			Type: config.DbTypeSQLite,
			Path: filepath.Join(t.TempDir(), "stakeflow.db"),
		},
		Poller: config.PollerConfig{RefreshInterval: time.Hour},
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Metrics: config.MetricsConfig{
			Host: "127.0.0.1",
			Port: 0,
		},
	}
}

// Refresh triggers a load through the API and decodes the returned dashboard.
func (tm *TestManager) Refresh(t *testing.T) *services.Dashboard {
	resp, err := http.Post(tm.Server.URL+"/v1/dashboard/refresh", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dashboard services.Dashboard
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dashboard))
	return &dashboard
}

func (tm *TestManager) GetJSON(t *testing.T, path string, out any) int {
	resp, err := http.Get(tm.Server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// DialWebsocket connects to the dashboard feed and waits until the hub has
// registered the client.
func (tm *TestManager) DialWebsocket(t *testing.T) *websocket.Conn {
	clients := tm.Hub.ClientCount()
	url := "ws" + strings.TrimPrefix(tm.Server.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return tm.Hub.ClientCount() == clients+1
	}, eventuallyWaitTimeOut, eventuallyPollTime)
	return conn
}
