package tzktclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/stakeflow/stakeflow-indexer/internal/clients/client"
	"github.com/stakeflow/stakeflow-indexer/internal/config"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
	"github.com/stakeflow/stakeflow-indexer/internal/utils/valuetree"
)

type Client struct {
	httpClient *http.Client
	cfg        *config.TzktConfig
}

func NewClient(cfg *config.TzktConfig) *Client {
	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

func (c *Client) GetBaseURL() string {
	return strings.TrimRight(c.cfg.URL, "/")
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	return c.cfg.Timeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

func (c *Client) GetBakerOperations(ctx context.Context) ([]StakingOperation, error) {
	ops, err := fetchAllPages(ctx, c.cfg.PageSize, func(ctx context.Context, limit, offset int) ([]StakingOperation, error) {
		return getPage[StakingOperation](ctx, c, bakerOperationsQuery(c.cfg.BakerAddress), stakingOperationsPath, limit, offset)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staking operations of baker %s: %w", c.cfg.BakerAddress, err)
	}
	return ops, nil
}

func (c *Client) GetProxyTransactions(ctx context.Context) ([]Transaction, error) {
	txs, err := fetchAllPages(ctx, c.cfg.PageSize, func(ctx context.Context, limit, offset int) ([]Transaction, error) {
		return getPage[Transaction](ctx, c, proxyTransactionsQuery(c.cfg.ProxyContract), transactionsPath, limit, offset)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions of contract %s: %w", c.cfg.ProxyContract, err)
	}
	return txs, nil
}

func (c *Client) GetTokenHolders(ctx context.Context) ([]TokenBalance, error) {
	balances, err := fetchAllPages(ctx, c.cfg.PageSize, func(ctx context.Context, limit, offset int) ([]TokenBalance, error) {
		return getPage[TokenBalance](ctx, c, tokenHoldersQuery(c.cfg.TokenContract), tokenBalancesPath, limit, offset)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holders of token %s: %w", c.cfg.TokenContract, err)
	}
	return balances, nil
}

// GetTransactionDetail is a single attempt: a failed lookup is handled by the
// caller's fallback, so even rate limited responses are not retried here.
func (c *Client) GetTransactionDetail(ctx context.Context, hash string, counter int64) (valuetree.Node, error) {
	type empty struct{}

	opts := &client.HttpClientOptions{
		Path:         transactionDetailPath(hash, counter),
		TemplatePath: transactionsPath + "/{hash}/{counter}",
	}
	resp, err := client.SendRequest[empty, valuetree.Node](ctx, c, http.MethodGet, opts, nil)
	if err != nil {
		return valuetree.Node{}, err
	}
	return *resp, nil
}

func getPage[T any](ctx context.Context, c *Client, query, templatePath string, limit, offset int) ([]T, error) {
	type empty struct{}

	callForPage := func() ([]T, error) {
		opts := &client.HttpClientOptions{
			Path:         withPage(query, limit, offset),
			TemplatePath: templatePath,
		}
		resp, err := client.SendRequest[empty, []T](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}

	return clientCallWithRetry(ctx, callForPage, c.cfg)
}

// clientCallWithRetry only retries rate limited calls; every other failure is
// returned right away as the TransportError it is.
func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.TzktConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(types.IsRateLimitError),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("rate limit exceeded, retrying with exponential backoff")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
