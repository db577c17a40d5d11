package services

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"
	"github.com/stakeflow/stakeflow-indexer/internal/clients/tzktclient"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
	"github.com/stakeflow/stakeflow-indexer/internal/utils/valuetree"
)

// displayUnitPrecision is the number of decimals between the smallest unit
// of both tokens and their display unit.
const displayUnitPrecision = 6

const (
	entrypointDeposit            = "deposit"
	entrypointRequestWithdrawal  = "request_withdrawal"
	entrypointFinalizeWithdrawal = "finalize_withdrawal"

	requestAmountField = "amount"
)

func toDisplayAmount(raw sdkmath.Int) float64 {
	amount, err := sdkmath.LegacyNewDecFromIntWithPrec(raw, displayUnitPrecision).Float64()
	if err != nil {
		return 0
	}
	return amount
}

// NormalizeBakeryOperations converts the baker's staking feed. Zero amount
// and unknown actions are dropped.
func NormalizeBakeryOperations(ctx context.Context, ops []tzktclient.StakingOperation) []types.Operation {
	out := make([]types.Operation, 0, len(ops))
	for _, op := range ops {
		if op.Amount <= 0 {
			continue
		}
		kind, err := types.KindFromAction(op.Action)
		if err != nil {
			log.Ctx(ctx).Debug().Err(err).Int64("id", op.ID).Msg("skipping staking operation")
			continue
		}

		out = append(out, types.Operation{
			Timestamp: op.Timestamp,
			Kind:      kind,
			Amount:    toDisplayAmount(sdkmath.NewInt(op.Amount)),
			Source:    types.SourceBakery,
		})
	}
	return out
}

// NormalizeProxyTransactions converts the proxy contract calls. Deposits and
// finalizations carry their base token amount directly; withdrawal requests
// are returned separately because their payout still has to be resolved.
func NormalizeProxyTransactions(
	ctx context.Context, txs []tzktclient.Transaction, derivativeAmountField string,
) ([]types.Operation, []types.WithdrawalRequest) {
	var (
		ops      []types.Operation
		requests []types.WithdrawalRequest
	)

	for _, tx := range txs {
		switch tx.Entrypoint() {
		case entrypointDeposit, entrypointFinalizeWithdrawal:
			if tx.Amount <= 0 {
				continue
			}
			kind := types.KindStake
			if tx.Entrypoint() == entrypointFinalizeWithdrawal {
				kind = types.KindFinalize
			}
			ops = append(ops, types.Operation{
				Timestamp: tx.Timestamp,
				Kind:      kind,
				Amount:    toDisplayAmount(sdkmath.NewInt(tx.Amount)),
				Source:    types.SourceProxy,
				Sender:    tx.SenderAddress(),
			})
		case entrypointRequestWithdrawal:
			amount, ok := requestedDerivativeAmount(tx.Parameter.Value, derivativeAmountField)
			if !ok || !amount.IsPositive() {
				log.Ctx(ctx).Debug().
					Str("hash", tx.Hash).
					Int64("counter", tx.Counter).
					Msg("skipping withdrawal request without a positive amount")
				continue
			}
			requests = append(requests, types.WithdrawalRequest{
				Hash:             tx.Hash,
				Counter:          tx.Counter,
				Timestamp:        tx.Timestamp,
				Sender:           tx.SenderAddress(),
				DerivativeAmount: amount,
			})
		}
	}

	return ops, requests
}

// requestedDerivativeAmount reads the derivative amount of a
// request_withdrawal call, sent either as a bare value or as a record.
func requestedDerivativeAmount(value valuetree.Node, derivativeAmountField string) (sdkmath.Int, bool) {
	switch value.Kind() {
	case valuetree.KindNumber, valuetree.KindString:
		return value.Int()
	case valuetree.KindObject:
		for _, field := range []string{requestAmountField, derivativeAmountField} {
			if n, ok := value.Field(field); ok {
				return n.Int()
			}
		}
	}
	return sdkmath.Int{}, false
}
