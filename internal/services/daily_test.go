package services

import (
	"context"
	"testing"
	"time"

	"github.com/stakeflow/stakeflow-indexer/internal/clients/tzktclient"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
	"github.com/stakeflow/stakeflow-indexer/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func op(source types.OperationSource, kind types.OperationKind, amount float64, at time.Time) types.Operation {
	return types.Operation{Timestamp: at, Kind: kind, Amount: amount, Source: source}
}

func TestAggregateDaily_StakeThenFinalize(t *testing.T) {
	day := testutil.Day(2024, time.March, 1, 10*time.Hour)
	ops := NormalizeBakeryOperations(context.Background(), []tzktclient.StakingOperation{
		testutil.StakingOperation("stake", 5_000_000, day),
		testutil.StakingOperation("finalize", 2_000_000, day.Add(24*time.Hour)),
	})

	flows := AggregateDaily(ops)

	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, flows.Dates)
	assert.Equal(t, []float64{5, 0}, flows.BakeryStake)
	assert.Equal(t, []float64{0, 2}, flows.BakeryFinalize)
	assert.Equal(t, []float64{5, 3}, flows.BakeryBalance)
	assert.Equal(t, []float64{0, 0}, flows.ProxyBalance)
}

func TestAggregateDaily_ProxyFinalizeOnlyDayIsDropped(t *testing.T) {
	d1 := testutil.Day(2024, time.March, 1, time.Hour)
	d2 := testutil.Day(2024, time.March, 2, time.Hour)
	d3 := testutil.Day(2024, time.March, 3, time.Hour)

	flows := AggregateDaily([]types.Operation{
		op(types.SourceProxy, types.KindStake, 10, d1),
		op(types.SourceProxy, types.KindFinalize, 4, d2),
		op(types.SourceProxy, types.KindUnstake, 4, d3),
		op(types.SourceProxy, types.KindFinalize, 1, d3),
	})

	assert.Equal(t, []string{"2024-03-01", "2024-03-03"}, flows.Dates)
	assert.Equal(t, []float64{10, 0}, flows.ProxyDeposit)
	assert.Equal(t, []float64{0, 4}, flows.ProxyWithdraw)
	assert.Equal(t, []float64{0, 1}, flows.ProxyFinalize)
	assert.Equal(t, []float64{10, 9}, flows.ProxyBalance)
}

func TestAggregateDaily_BucketsByUTCDate(t *testing.T) {
	plusTwo := time.FixedZone("UTC+2", 2*60*60)
	// 01:00 on March 2nd at UTC+2 is still March 1st in UTC
	at := time.Date(2024, time.March, 2, 1, 0, 0, 0, plusTwo)

	flows := AggregateDaily([]types.Operation{op(types.SourceBakery, types.KindStake, 1, at)})
	assert.Equal(t, []string{"2024-03-01"}, flows.Dates)
}

func TestAggregateDaily_SeriesAreAligned(t *testing.T) {
	base := testutil.Day(2024, time.January, 30, 0)
	ops := []types.Operation{
		op(types.SourceBakery, types.KindStake, 3, base.Add(72*time.Hour)),
		op(types.SourceBakery, types.KindUnstake, 1, base),
		op(types.SourceProxy, types.KindStake, 2, base.Add(48*time.Hour)),
		op(types.SourceBakery, types.KindStake, 4, base.Add(72*time.Hour+time.Hour)),
		op(types.SourceBakery, types.KindFinalize, 9, base.Add(96*time.Hour)),
	}

	flows := AggregateDaily(ops)

	require.Equal(t, []string{"2024-01-30", "2024-02-01", "2024-02-02", "2024-02-03"}, flows.Dates)
	for _, series := range [][]float64{
		flows.BakeryStake, flows.BakeryUnstake, flows.BakeryFinalize,
		flows.ProxyDeposit, flows.ProxyWithdraw, flows.ProxyFinalize,
		flows.BakeryBalance, flows.ProxyBalance,
	} {
		assert.Len(t, series, len(flows.Dates))
	}

	assert.Equal(t, []float64{0, 0, 7, 0}, flows.BakeryStake)
	assert.Equal(t, []float64{1, 0, 0, 0}, flows.BakeryUnstake)
	// balances may go negative under excess finalization
	assert.Equal(t, []float64{0, 0, 7, -2}, flows.BakeryBalance)
	assert.Equal(t, []float64{0, 2, 2, 2}, flows.ProxyBalance)

	for i := 1; i < len(flows.Dates); i++ {
		assert.Less(t, flows.Dates[i-1], flows.Dates[i])
	}
}

func TestAggregateDaily_Empty(t *testing.T) {
	flows := AggregateDaily(nil)
	assert.Empty(t, flows.Dates)
	assert.NotNil(t, flows.BakeryStake)
}
