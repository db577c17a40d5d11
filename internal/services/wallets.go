package services

import (
	"context"
	"sort"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"
	"github.com/stakeflow/stakeflow-indexer/internal/clients/tzktclient"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
)

type WalletStats struct {
	Address        string    `json:"address"`
	TotalDeposited float64   `json:"total_deposited"`
	TotalWithdrawn float64   `json:"total_withdrawn"`
	TotalFinalized float64   `json:"total_finalized"`
	DepositCount   int       `json:"deposit_count"`
	WithdrawCount  int       `json:"withdraw_count"`
	FinalizeCount  int       `json:"finalize_count"`
	NetPosition    float64   `json:"net_position"`
	CurrentBalance float64   `json:"current_balance"`
	FirstActivity  time.Time `json:"first_activity"`
	LastActivity   time.Time `json:"last_activity"`
}

func (w *WalletStats) add(op types.Operation) {
	switch op.Kind {
	case types.KindStake:
		w.TotalDeposited += op.Amount
		w.DepositCount++
	case types.KindUnstake:
		w.TotalWithdrawn += op.Amount
		w.WithdrawCount++
	case types.KindFinalize:
		w.TotalFinalized += op.Amount
		w.FinalizeCount++
	}
	w.NetPosition = w.TotalDeposited - w.TotalWithdrawn

	if w.FirstActivity.IsZero() || op.Timestamp.Before(w.FirstActivity) {
		w.FirstActivity = op.Timestamp
	}
	if op.Timestamp.After(w.LastActivity) {
		w.LastActivity = op.Timestamp
	}
}

// AggregateWallets groups proxy operations by sender and orders the wallets
// by descending net position; equal positions keep first-seen order.
// balances holds the derivative token balance of each holder, display units.
func AggregateWallets(ops []types.Operation, balances map[string]float64) []*WalletStats {
	var wallets []*WalletStats
	byAddress := make(map[string]*WalletStats)

	for _, op := range ops {
		if op.Source != types.SourceProxy || op.Sender == "" {
			continue
		}
		wallet, ok := byAddress[op.Sender]
		if !ok {
			wallet = &WalletStats{Address: op.Sender}
			byAddress[op.Sender] = wallet
			wallets = append(wallets, wallet)
		}
		wallet.add(op)
	}

	for _, wallet := range wallets {
		wallet.CurrentBalance = balances[wallet.Address]
	}

	sort.SliceStable(wallets, func(i, j int) bool {
		return wallets[i].NetPosition > wallets[j].NetPosition
	})
	return wallets
}

// HolderBalances converts the holder snapshot to display units, keyed by
// address. Unparseable balances are skipped.
func HolderBalances(ctx context.Context, holders []tzktclient.TokenBalance) map[string]float64 {
	balances := make(map[string]float64, len(holders))
	for _, holder := range holders {
		if holder.Account == nil || holder.Account.Address == "" {
			continue
		}
		raw, ok := sdkmath.NewIntFromString(strings.TrimSpace(holder.Balance))
		if !ok || raw.IsNegative() {
			log.Ctx(ctx).Debug().
				Str("address", holder.Account.Address).
				Str("balance", holder.Balance).
				Msg("skipping unparseable token balance")
			continue
		}
		balances[holder.Account.Address] += toDisplayAmount(raw)
	}
	return balances
}
