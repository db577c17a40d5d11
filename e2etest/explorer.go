package e2etest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stakeflow/stakeflow-indexer/internal/clients/tzktclient"
	"github.com/stakeflow/stakeflow-indexer/internal/utils/valuetree"
)

// Explorer serves the block explorer endpoints the indexer reads from,
// backed by in-memory records.
type Explorer struct {
	Server *httptest.Server

	mu          sync.Mutex
	staking     []tzktclient.StakingOperation
	txs         []tzktclient.Transaction
	holders     []tzktclient.TokenBalance
	details     map[string]valuetree.Node
	detailCalls map[string]int
	// rateLimited is the number of list requests still to be answered with a 429.
	rateLimited int
}

func NewExplorer(t *testing.T) *Explorer {
	e := &Explorer{
		details:     make(map[string]valuetree.Node),
		detailCalls: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Get("/v1/operations/staking", func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		servePage(w, r, e, e.staking)
	})
	r.Get("/v1/operations/transactions", func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		servePage(w, r, e, e.txs)
	})
	r.Get("/v1/tokens/balances", func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		servePage(w, r, e, e.holders)
	})
	r.Get("/v1/operations/transactions/{hash}/{counter}", func(w http.ResponseWriter, r *http.Request) {
		key := detailKey(chi.URLParam(r, "hash"), chi.URLParam(r, "counter"))

		e.mu.Lock()
		e.detailCalls[key]++
		detail, ok := e.details[key]
		e.mu.Unlock()

		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, detail)
	})

	e.Server = httptest.NewServer(r)
	t.Cleanup(e.Server.Close)
	return e
}

func detailKey(hash, counter string) string {
	return hash + "/" + counter
}

func servePage[T any](w http.ResponseWriter, r *http.Request, e *Explorer, records []T) {
	if e.rateLimited > 0 {
		e.rateLimited--
		http.Error(w, "slow down", http.StatusTooManyRequests)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		http.Error(w, "invalid offset", http.StatusBadRequest)
		return
	}

	page := []T{}
	if offset < len(records) {
		page = records[offset:min(offset+limit, len(records))]
	}
	writeJSON(w, page)
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (e *Explorer) AddStakingOperations(ops ...tzktclient.StakingOperation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.staking = append(e.staking, ops...)
}

func (e *Explorer) AddTransactions(txs ...tzktclient.Transaction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.txs = append(e.txs, txs...)
}

func (e *Explorer) AddHolders(holders ...tzktclient.TokenBalance) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.holders = append(e.holders, holders...)
}

// SetDetail registers the detail served for the given operation.
func (e *Explorer) SetDetail(hash string, counter int64, detail valuetree.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.details[detailKey(hash, fmt.Sprint(counter))] = detail
}

func (e *Explorer) DetailCalls(hash string, counter int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detailCalls[detailKey(hash, fmt.Sprint(counter))]
}

// RateLimitNext makes the next n list requests fail with a 429.
func (e *Explorer) RateLimitNext(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rateLimited = n
}
