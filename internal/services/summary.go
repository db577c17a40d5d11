package services

import (
	"time"

	"github.com/stakeflow/stakeflow-indexer/internal/db/model"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
)

type SourceSummary struct {
	TotalStake     float64 `json:"total_stake"`
	TotalUnstake   float64 `json:"total_unstake"`
	TotalFinalize  float64 `json:"total_finalize"`
	NetStaked      float64 `json:"net_staked"`
	OperationCount int     `json:"operation_count"`
}

func (s *SourceSummary) add(op types.Operation) {
	switch op.Kind {
	case types.KindStake:
		s.TotalStake += op.Amount
	case types.KindUnstake:
		s.TotalUnstake += op.Amount
	case types.KindFinalize:
		s.TotalFinalize += op.Amount
	}
	s.OperationCount++
	s.NetStaked = s.TotalStake - s.TotalFinalize
}

func (s SourceSummary) toStats() model.SourceStats {
	return model.SourceStats{
		TotalStake:     s.TotalStake,
		TotalUnstake:   s.TotalUnstake,
		TotalFinalize:  s.TotalFinalize,
		NetStaked:      s.NetStaked,
		OperationCount: s.OperationCount,
	}
}

// Summary holds the headline figures of the dashboard. Amounts are in
// display units and include finalize-only days missing from the daily series.
type Summary struct {
	Bakery          SourceSummary `json:"bakery"`
	Proxy           SourceSummary `json:"proxy"`
	ProxyWallets    int           `json:"proxy_wallets"`
	HolderCount     int           `json:"holder_count"`
	HeldSupply      float64       `json:"held_supply"`
	LastOperationAt time.Time     `json:"last_operation_at"`
}

func Summarize(ops []types.Operation, wallets []*WalletStats, balances map[string]float64) Summary {
	var summary Summary
	for _, op := range ops {
		switch op.Source {
		case types.SourceBakery:
			summary.Bakery.add(op)
		case types.SourceProxy:
			summary.Proxy.add(op)
		}
		if op.Timestamp.After(summary.LastOperationAt) {
			summary.LastOperationAt = op.Timestamp
		}
	}

	summary.ProxyWallets = len(wallets)
	summary.HolderCount = len(balances)
	for _, balance := range balances {
		summary.HeldSupply += balance
	}
	return summary
}

func (s Summary) toStatsDocument() *model.DashboardStatsDocument {
	var lastOperationAt int64
	if !s.LastOperationAt.IsZero() {
		lastOperationAt = s.LastOperationAt.Unix()
	}
	return &model.DashboardStatsDocument{
		ID:              model.DashboardStatsID,
		Bakery:          s.Bakery.toStats(),
		Proxy:           s.Proxy.toStats(),
		ProxyWallets:    s.ProxyWallets,
		HolderCount:     s.HolderCount,
		HeldSupply:      s.HeldSupply,
		LastOperationAt: lastOperationAt,
	}
}

func walletStatsDocuments(wallets []*WalletStats) []*model.WalletStatsDocument {
	docs := make([]*model.WalletStatsDocument, 0, len(wallets))
	for i, w := range wallets {
		docs = append(docs, &model.WalletStatsDocument{
			Address:        w.Address,
			TotalDeposited: w.TotalDeposited,
			TotalWithdrawn: w.TotalWithdrawn,
			TotalFinalized: w.TotalFinalized,
			DepositCount:   w.DepositCount,
			WithdrawCount:  w.WithdrawCount,
			FinalizeCount:  w.FinalizeCount,
			NetPosition:    w.NetPosition,
			CurrentBalance: w.CurrentBalance,
			FirstActivity:  w.FirstActivity.Unix(),
			LastActivity:   w.LastActivity.Unix(),
			Rank:           i + 1,
		})
	}
	return docs
}
