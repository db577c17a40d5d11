package services

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stakeflow/stakeflow-indexer/internal/clients/tzktclient"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
	"github.com/stakeflow/stakeflow-indexer/internal/utils/valuetree"
	"github.com/stakeflow/stakeflow-indexer/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDisplayAmount(t *testing.T) {
	assert.Equal(t, 5.0, toDisplayAmount(sdkmath.NewInt(5_000_000)))
	assert.Equal(t, 0.000001, toDisplayAmount(sdkmath.NewInt(1)))
	assert.Equal(t, 1234.5, toDisplayAmount(sdkmath.NewInt(1_234_500_000)))
}

func TestNormalizeBakeryOperations(t *testing.T) {
	ctx := context.Background()
	at := testutil.Day(2024, time.March, 1, time.Hour)

	ops := NormalizeBakeryOperations(ctx, []tzktclient.StakingOperation{
		testutil.StakingOperation("stake", 5_000_000, at),
		testutil.StakingOperation("unstake", 0, at),
		testutil.StakingOperation("finalize", 2_000_000, at),
		testutil.StakingOperation("slash", 1_000_000, at),
		testutil.StakingOperation("unstake", 1_500_000, at),
	})

	require.Len(t, ops, 3)
	assert.Equal(t, types.Operation{Timestamp: at, Kind: types.KindStake, Amount: 5, Source: types.SourceBakery}, ops[0])
	assert.Equal(t, types.KindFinalize, ops[1].Kind)
	assert.Equal(t, 2.0, ops[1].Amount)
	assert.Equal(t, types.KindUnstake, ops[2].Kind)
	assert.Equal(t, 1.5, ops[2].Amount)
	for _, op := range ops {
		assert.Empty(t, op.Sender)
		assert.Positive(t, op.Amount)
	}
}

func TestNormalizeProxyTransactions(t *testing.T) {
	ctx := context.Background()
	at := testutil.Day(2024, time.March, 2, 0)
	alice := testutil.RandomAddress()

	objectRequest := testutil.ProxyTransaction("request_withdrawal", 0, alice, at)
	objectRequest.Parameter.Value = valuetree.Object("amount", valuetree.Number("3000000"))

	fieldRequest := testutil.ProxyTransaction("request_withdrawal", 0, alice, at)
	fieldRequest.Parameter.Value = valuetree.Object("token_amount", valuetree.String("4000000"))

	txs := []tzktclient.Transaction{
		testutil.ProxyTransaction("deposit", 10_000_000, alice, at),
		testutil.ProxyTransaction("deposit", 0, alice, at),
		testutil.WithdrawalRequest(2_500_000, alice, at),
		testutil.WithdrawalRequest(0, alice, at),
		objectRequest,
		fieldRequest,
		testutil.ProxyTransaction("finalize_withdrawal", 2_600_000, alice, at),
		testutil.ProxyTransaction("finalize_withdrawal", 0, alice, at),
		testutil.ProxyTransaction("set_baker", 1, alice, at),
		{Hash: "ooNoParameter", Amount: 1},
	}

	ops, requests := NormalizeProxyTransactions(ctx, txs, "token_amount")

	require.Len(t, ops, 2)
	assert.Equal(t, types.Operation{Timestamp: at, Kind: types.KindStake, Amount: 10, Source: types.SourceProxy, Sender: alice}, ops[0])
	assert.Equal(t, types.Operation{Timestamp: at, Kind: types.KindFinalize, Amount: 2.6, Source: types.SourceProxy, Sender: alice}, ops[1])

	require.Len(t, requests, 3)
	assert.True(t, requests[0].DerivativeAmount.Equal(sdkmath.NewInt(2_500_000)))
	assert.Equal(t, txs[2].Hash, requests[0].Hash)
	assert.Equal(t, txs[2].Counter, requests[0].Counter)
	assert.Equal(t, alice, requests[0].Sender)
	assert.True(t, requests[1].DerivativeAmount.Equal(sdkmath.NewInt(3_000_000)))
	assert.True(t, requests[2].DerivativeAmount.Equal(sdkmath.NewInt(4_000_000)))
}

func TestRequestedDerivativeAmount(t *testing.T) {
	testCases := []struct {
		name  string
		value valuetree.Node
		want  int64
		ok    bool
	}{
		{"number", valuetree.Number("42"), 42, true},
		{"string", valuetree.String("42"), 42, true},
		{"record amount", valuetree.Object("amount", valuetree.String("7")), 7, true},
		{"record token field", valuetree.Object("token_amount", valuetree.Number("8")), 8, true},
		{"record without amount", valuetree.Object("to", valuetree.String("tz1")), 0, false},
		{"null", valuetree.Node{}, 0, false},
		{"fraction", valuetree.Number("1.5"), 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amount, ok := requestedDerivativeAmount(tc.value, "token_amount")
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.True(t, amount.Equal(sdkmath.NewInt(tc.want)))
			}
		})
	}
}
