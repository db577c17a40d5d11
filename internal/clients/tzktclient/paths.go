package tzktclient

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	stakingOperationsPath = "/v1/operations/staking"
	transactionsPath      = "/v1/operations/transactions"
	tokenBalancesPath     = "/v1/tokens/balances"
)

var (
	bakerActions     = []string{"stake", "unstake", "finalize"}
	proxyEntrypoints = []string{"deposit", "request_withdrawal", "finalize_withdrawal"}
)

func bakerOperationsQuery(baker string) string {
	q := url.Values{}
	q.Set("baker", baker)
	q.Set("action.in", strings.Join(bakerActions, ","))
	q.Set("sort.asc", "id")
	return stakingOperationsPath + "?" + q.Encode()
}

func proxyTransactionsQuery(contract string) string {
	q := url.Values{}
	q.Set("target", contract)
	q.Set("entrypoint.in", strings.Join(proxyEntrypoints, ","))
	q.Set("status", "applied")
	q.Set("sort.asc", "id")
	return transactionsPath + "?" + q.Encode()
}

func tokenHoldersQuery(contract string) string {
	q := url.Values{}
	q.Set("token.contract", contract)
	q.Set("balance.gt", "0")
	q.Set("sort.asc", "id")
	return tokenBalancesPath + "?" + q.Encode()
}

func transactionDetailPath(hash string, counter int64) string {
	return fmt.Sprintf("%s/%s/%d", transactionsPath, url.PathEscape(hash), counter)
}

// withPage appends the pagination predicates to a query that already
// carries its filters.
func withPage(query string, limit, offset int) string {
	sep := "?"
	if strings.Contains(query, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%slimit=%d&offset=%d", query, sep, limit, offset)
}
