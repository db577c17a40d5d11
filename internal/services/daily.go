package services

import (
	"sort"

	"github.com/stakeflow/stakeflow-indexer/internal/types"
)

// DailyFlows holds one value per calendar day for every series; index i of
// each series belongs to Dates[i]. Balances are running sums of stake minus
// finalize per source.
type DailyFlows struct {
	Dates          []string  `json:"dates"`
	BakeryStake    []float64 `json:"bakery_stake"`
	BakeryUnstake  []float64 `json:"bakery_unstake"`
	BakeryFinalize []float64 `json:"bakery_finalize"`
	ProxyDeposit   []float64 `json:"proxy_deposit"`
	ProxyWithdraw  []float64 `json:"proxy_withdraw"`
	ProxyFinalize  []float64 `json:"proxy_finalize"`
	BakeryBalance  []float64 `json:"bakery_balance"`
	ProxyBalance   []float64 `json:"proxy_balance"`
}

type dailyBucket struct {
	bakeryStake, bakeryUnstake, bakeryFinalize float64
	proxyDeposit, proxyWithdraw, proxyFinalize float64
}

func (b *dailyBucket) add(op types.Operation) {
	switch op.Source {
	case types.SourceBakery:
		switch op.Kind {
		case types.KindStake:
			b.bakeryStake += op.Amount
		case types.KindUnstake:
			b.bakeryUnstake += op.Amount
		case types.KindFinalize:
			b.bakeryFinalize += op.Amount
		}
	case types.SourceProxy:
		switch op.Kind {
		case types.KindStake:
			b.proxyDeposit += op.Amount
		case types.KindUnstake:
			b.proxyWithdraw += op.Amount
		case types.KindFinalize:
			b.proxyFinalize += op.Amount
		}
	}
}

// opensBucket reports whether the operation's day gets a bucket. Proxy
// finalizations only count toward days that already have one, so a day
// where the proxy only settled withdrawals is left out of the series.
func opensBucket(op types.Operation) bool {
	return !(op.Source == types.SourceProxy && op.Kind == types.KindFinalize)
}

// AggregateDaily buckets operations of both sources by UTC calendar day.
func AggregateDaily(ops []types.Operation) *DailyFlows {
	buckets := make(map[string]*dailyBucket)
	for _, op := range ops {
		if opensBucket(op) {
			if _, ok := buckets[op.Date()]; !ok {
				buckets[op.Date()] = &dailyBucket{}
			}
		}
	}

	for _, op := range ops {
		if bucket, ok := buckets[op.Date()]; ok {
			bucket.add(op)
		}
	}

	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	flows := &DailyFlows{
		Dates:          dates,
		BakeryStake:    make([]float64, 0, len(dates)),
		BakeryUnstake:  make([]float64, 0, len(dates)),
		BakeryFinalize: make([]float64, 0, len(dates)),
		ProxyDeposit:   make([]float64, 0, len(dates)),
		ProxyWithdraw:  make([]float64, 0, len(dates)),
		ProxyFinalize:  make([]float64, 0, len(dates)),
		BakeryBalance:  make([]float64, 0, len(dates)),
		ProxyBalance:   make([]float64, 0, len(dates)),
	}

	var bakeryBalance, proxyBalance float64
	for _, date := range dates {
		b := buckets[date]
		bakeryBalance += b.bakeryStake - b.bakeryFinalize
		proxyBalance += b.proxyDeposit - b.proxyFinalize

		flows.BakeryStake = append(flows.BakeryStake, b.bakeryStake)
		flows.BakeryUnstake = append(flows.BakeryUnstake, b.bakeryUnstake)
		flows.BakeryFinalize = append(flows.BakeryFinalize, b.bakeryFinalize)
		flows.ProxyDeposit = append(flows.ProxyDeposit, b.proxyDeposit)
		flows.ProxyWithdraw = append(flows.ProxyWithdraw, b.proxyWithdraw)
		flows.ProxyFinalize = append(flows.ProxyFinalize, b.proxyFinalize)
		flows.BakeryBalance = append(flows.BakeryBalance, bakeryBalance)
		flows.ProxyBalance = append(flows.ProxyBalance, proxyBalance)
	}

	return flows
}
