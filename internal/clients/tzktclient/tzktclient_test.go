package tzktclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stakeflow/stakeflow-indexer/internal/config"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
	"github.com/stakeflow/stakeflow-indexer/internal/utils/valuetree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	metrics.Init(0)
	os.Exit(m.Run())
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&config.TzktConfig{
		URL:           server.URL + "/",
		Timeout:       5 * time.Second,
		PageSize:      2,
		MaxRetryTimes: 3,
		RetryInterval: 10 * time.Millisecond,
		BakerAddress:  "tz1baker",
		ProxyContract: "KT1proxy",
		TokenContract: "KT1token",
	})
}

func TestGetBakerOperations_Paginates(t *testing.T) {
	var offsets []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, stakingOperationsPath, r.URL.Path)
		assert.Equal(t, "tz1baker", r.URL.Query().Get("baker"))
		assert.Equal(t, "stake,unstake,finalize", r.URL.Query().Get("action.in"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		switch offset {
		case "0":
			fmt.Fprint(w, `[{"id":1,"action":"stake","amount":5000000,"timestamp":"2024-03-01T10:00:00Z"},
				{"id":2,"action":"unstake","amount":1000000,"timestamp":"2024-03-01T11:00:00Z"}]`)
		case "2":
			fmt.Fprint(w, `[{"id":3,"action":"finalize","amount":1000000,"timestamp":"2024-03-02T10:00:00Z"}]`)
		default:
			t.Errorf("unexpected offset %s", offset)
		}
	})

	ops, err := c.GetBakerOperations(context.Background())
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, []string{"0", "2"}, offsets)
	assert.Equal(t, int64(1), ops[0].ID)
	assert.Equal(t, "finalize", ops[2].Action)
	assert.Equal(t, int64(5000000), ops[0].Amount)
}

func TestGetBakerOperations_ExactPageBoundary(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("offset") == "0" {
			fmt.Fprint(w, `[{"id":1,"action":"stake","amount":1},{"id":2,"action":"stake","amount":2}]`)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	ops, err := c.GetBakerOperations(context.Background())
	require.NoError(t, err)
	assert.Len(t, ops, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetProxyTransactions_FailedPageAbortsFetch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			fmt.Fprint(w, `[{"id":1,"hash":"oo1","parameter":{"entrypoint":"deposit"}},
				{"id":2,"hash":"oo2","parameter":{"entrypoint":"deposit"}}]`)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	txs, err := c.GetProxyTransactions(context.Background())
	require.Error(t, err)
	assert.Nil(t, txs)
	assert.True(t, types.IsTransportError(err))
	assert.Contains(t, err.Error(), "500")
}

func TestGetProxyTransactions_DecodesParameters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "KT1proxy", r.URL.Query().Get("target"))
		assert.Equal(t, "applied", r.URL.Query().Get("status"))
		fmt.Fprint(w, `[{"id":7,"hash":"oo7","counter":42,"amount":0,
			"sender":{"address":"tz1alice"},
			"parameter":{"entrypoint":"request_withdrawal","value":"2500000"}}]`)
	})

	txs, err := c.GetProxyTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, "request_withdrawal", tx.Entrypoint())
	assert.Equal(t, "tz1alice", tx.SenderAddress())
	assert.Equal(t, int64(42), tx.Counter)

	amount, ok := tx.Parameter.Value.Int()
	require.True(t, ok)
	assert.True(t, amount.Equal(sdkmath.NewInt(2500000)))
}

func TestGetProxyTransactions_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	txs, err := c.GetProxyTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetProxyTransactions_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetProxyTransactions(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsRateLimitError(err))
	assert.True(t, types.IsTransportError(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetTransactionDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, transactionsPath+"/oo1/17", r.URL.Path)
		fmt.Fprint(w, `[{"hash":"oo1","storage":{"withdrawal_queue":[
			{"xtz_amount":"1000","token_amount":"900"},
			{"xtz_amount":"2100000","token_amount":"2000000"}]}}]`)
	})

	detail, err := c.GetTransactionDetail(context.Background(), "oo1", 17)
	require.NoError(t, err)
	require.Equal(t, valuetree.KindArray, detail.Kind())

	pairs := valuetree.FindAmountPairs(detail, "xtz_amount", "token_amount")
	require.Len(t, pairs, 2)
	assert.True(t, pairs[1].Base.Equal(sdkmath.NewInt(2100000)))
}

func TestGetTransactionDetail_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	})

	_, err := c.GetTransactionDetail(context.Background(), "oo404", 1)
	require.Error(t, err)

	var transportErr *types.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusNotFound, transportErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetTokenHolders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tokenBalancesPath, r.URL.Path)
		assert.Equal(t, "KT1token", r.URL.Query().Get("token.contract"))
		fmt.Fprint(w, `[{"account":{"address":"tz1alice"},"balance":"1500000"}]`)
	})

	holders, err := c.GetTokenHolders(context.Background())
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, "tz1alice", holders[0].Account.Address)
	assert.Equal(t, "1500000", holders[0].Balance)
}

func TestFetchAllPages_RejectsNonPositivePageSize(t *testing.T) {
	_, err := fetchAllPages(context.Background(), 0, func(ctx context.Context, limit, offset int) ([]int, error) {
		return nil, nil
	})
	require.Error(t, err)
}

func TestFetchAllPages_ConcatenatesInOrder(t *testing.T) {
	data := make([]int, 7)
	for i := range data {
		data[i] = i
	}

	got, err := fetchAllPages(context.Background(), 3, func(ctx context.Context, limit, offset int) ([]int, error) {
		end := min(offset+limit, len(data))
		return data[offset:end], nil
	})
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWithPage(t *testing.T) {
	assert.Equal(t, "/a?x=1&limit=10&offset=20", withPage("/a?x=1", 10, 20))
	assert.Equal(t, "/a?limit=5&offset=0", withPage("/a", 5, 0))
	assert.Equal(t, transactionsPath+"/oo1/"+strconv.Itoa(3), transactionDetailPath("oo1", 3))
}
