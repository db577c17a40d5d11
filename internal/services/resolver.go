package services

import (
	"context"
	"errors"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/stakeflow/stakeflow-indexer/internal/cache"
	"github.com/stakeflow/stakeflow-indexer/internal/config"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
	"github.com/stakeflow/stakeflow-indexer/internal/utils/valuetree"
)

const storageField = "storage"

var errNoAmountPair = errors.New("no withdrawal amount found in transaction detail")

// DetailFetcher is the lookup the resolver needs from the block explorer.
type DetailFetcher interface {
	GetTransactionDetail(ctx context.Context, hash string, counter int64) (valuetree.Node, error)
}

// WithdrawalResolver turns withdrawal requests, denominated in the derivative
// token, into the base token amount they pay out.
type WithdrawalResolver struct {
	cfg     *config.ResolverConfig
	details DetailFetcher
	cache   *cache.WithdrawalCache
}

func NewWithdrawalResolver(
	cfg *config.ResolverConfig, details DetailFetcher, amounts *cache.WithdrawalCache,
) *WithdrawalResolver {
	return &WithdrawalResolver{
		cfg:     cfg,
		details: details,
		cache:   amounts,
	}
}

// Resolve returns the base token amount of a single request in display units.
// It never fails: a lookup that can't produce an amount falls back to the
// requested derivative amount, which is not cached.
func (r *WithdrawalResolver) Resolve(ctx context.Context, req types.WithdrawalRequest) float64 {
	if amount, ok := r.cache.Get(req.Hash, req.Counter); ok {
		metrics.IncWithdrawalResolution(metrics.ResolutionCacheHit)
		return amount
	}
	return r.resolveMiss(ctx, req)
}

// ResolveAll resolves every request and returns them as unstake operations in
// input order. Cache hits are answered inline; misses are looked up in
// batches of cfg.BatchSize, the i-th lookup of a batch starting i stagger
// intervals after the first, with cfg.BatchPause between batches.
func (r *WithdrawalResolver) ResolveAll(ctx context.Context, reqs []types.WithdrawalRequest) ([]types.Operation, error) {
	amounts := make([]float64, len(reqs))

	var misses []int
	for i, req := range reqs {
		if amount, ok := r.cache.Get(req.Hash, req.Counter); ok {
			metrics.IncWithdrawalResolution(metrics.ResolutionCacheHit)
			amounts[i] = amount
			continue
		}
		misses = append(misses, i)
	}

	log.Ctx(ctx).Debug().
		Int("requests", len(reqs)).
		Int("cache_misses", len(misses)).
		Msg("resolving withdrawal requests")

	batchSize := max(r.cfg.BatchSize, 1)
	for start := 0; start < len(misses); start += batchSize {
		if start > 0 {
			if err := sleepContext(ctx, r.cfg.BatchPause); err != nil {
				return nil, err
			}
		}

		batch := misses[start:min(start+batchSize, len(misses))]
		p := pool.New().WithMaxGoroutines(batchSize)
		for position, idx := range batch {
			p.Go(func() {
				if err := sleepContext(ctx, time.Duration(position)*r.cfg.StaggerInterval); err != nil {
					return
				}
				amounts[idx] = r.resolveMiss(ctx, reqs[idx])
			})
		}
		p.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	ops := make([]types.Operation, 0, len(reqs))
	for i, req := range reqs {
		ops = append(ops, types.Operation{
			Timestamp: req.Timestamp,
			Kind:      types.KindUnstake,
			Amount:    amounts[i],
			Source:    types.SourceProxy,
			Sender:    req.Sender,
		})
	}
	return ops, nil
}

func (r *WithdrawalResolver) resolveMiss(ctx context.Context, req types.WithdrawalRequest) float64 {
	amount, err := r.lookup(ctx, req)
	if err != nil {
		fallback := toDisplayAmount(req.DerivativeAmount)
		log.Ctx(ctx).Warn().
			Err(err).
			Float64("fallback_amount", fallback).
			Msg("using requested token amount as withdrawal amount")
		metrics.IncWithdrawalResolution(metrics.ResolutionFallback)
		return fallback
	}

	r.cache.Set(req.Hash, req.Counter, amount)
	metrics.IncWithdrawalResolution(metrics.ResolutionResolved)
	return amount
}

func (r *WithdrawalResolver) lookup(ctx context.Context, req types.WithdrawalRequest) (float64, error) {
	detail, err := r.details.GetTransactionDetail(ctx, req.Hash, req.Counter)
	if err != nil {
		return 0, &types.DetailLookupError{Hash: req.Hash, Counter: req.Counter, Err: err}
	}

	base, err := r.extractBaseAmount(detail, req.DerivativeAmount)
	if err != nil {
		return 0, &types.DetailLookupError{Hash: req.Hash, Counter: req.Counter, Err: err}
	}
	return toDisplayAmount(base), nil
}

// extractBaseAmount prefers the newest withdrawal queue entry of the
// contract storage when its derivative amount is the requested one, and
// otherwise scans the whole detail for amount pairs.
func (r *WithdrawalResolver) extractBaseAmount(detail valuetree.Node, expected sdkmath.Int) (sdkmath.Int, error) {
	records := []valuetree.Node{detail}
	if detail.Kind() == valuetree.KindArray {
		records = detail.Children()
	}

	for _, record := range records {
		storage, ok := record.Field(storageField)
		if !ok {
			continue
		}
		queue, ok := storage.Field(r.cfg.WithdrawalQueueField)
		if !ok {
			continue
		}
		entry, ok := queue.Last()
		if !ok {
			continue
		}
		pair, ok := valuetree.PairAt(entry, r.cfg.BaseAmountField, r.cfg.DerivativeAmountField)
		if ok && pair.Derivative.Equal(expected) && !pair.Base.IsNegative() {
			return pair.Base, nil
		}
	}

	pairs := valuetree.FindAmountPairs(detail, r.cfg.BaseAmountField, r.cfg.DerivativeAmountField)
	pair, ok := valuetree.SelectPair(pairs, expected)
	if !ok || pair.Base.IsNegative() {
		return sdkmath.Int{}, errNoAmountPair
	}
	return pair.Base, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
