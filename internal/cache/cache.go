// Package cache holds the resolved withdrawal request amounts that survive
// between load cycles.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog/log"
	"github.com/stakeflow/stakeflow-indexer/internal/db"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
)

// StorageKey is the logical key the whole cache is persisted under.
const StorageKey = "withdrawal-amounts"

// KeyValueStore is the part of the persistence layer the cache needs.
type KeyValueStore interface {
	GetKeyValue(ctx context.Context, key string) (string, error)
	SaveKeyValue(ctx context.Context, key, value string) error
}

// WithdrawalCache maps "{hash}-{counter}" to a resolved base token amount in
// display units. Only amounts read from transaction details are stored.
type WithdrawalCache struct {
	amounts *xsync.Map[string, float64]
}

func New() *WithdrawalCache {
	return &WithdrawalCache{amounts: xsync.NewMap[string, float64]()}
}

func Key(hash string, counter int64) string {
	return fmt.Sprintf("%s-%d", hash, counter)
}

func (c *WithdrawalCache) Get(hash string, counter int64) (float64, bool) {
	return c.amounts.Load(Key(hash, counter))
}

func (c *WithdrawalCache) Set(hash string, counter int64, amount float64) {
	c.amounts.Store(Key(hash, counter), amount)
}

func (c *WithdrawalCache) Len() int {
	return c.amounts.Size()
}

// Snapshot copies the current entries.
func (c *WithdrawalCache) Snapshot() map[string]float64 {
	out := make(map[string]float64, c.amounts.Size())
	c.amounts.Range(func(key string, value float64) bool {
		out[key] = value
		return true
	})
	return out
}

// Load fills the cache from store. A missing or unreadable entry leaves the
// cache empty; the failure is only logged.
func Load(ctx context.Context, store KeyValueStore) *WithdrawalCache {
	c := New()

	raw, err := store.GetKeyValue(ctx, StorageKey)
	if err != nil {
		if db.IsNotFoundError(err) {
			log.Ctx(ctx).Debug().Msg("no persisted withdrawal cache, starting empty")
			return c
		}
		log.Ctx(ctx).Warn().Err(&types.CacheIOError{Op: "read", Err: err}).Msg("starting with an empty withdrawal cache")
		return c
	}

	var entries map[string]float64
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Ctx(ctx).Warn().Err(&types.CacheIOError{Op: "decode", Err: err}).Msg("starting with an empty withdrawal cache")
		return c
	}

	for key, amount := range entries {
		if amount < 0 {
			log.Ctx(ctx).Debug().Str("key", key).Float64("amount", amount).Msg("skipping negative cached amount")
			continue
		}
		c.amounts.Store(key, amount)
	}

	log.Ctx(ctx).Debug().Int("entries", c.Len()).Msg("withdrawal cache loaded")
	return c
}

// Persist writes every entry back to store in one call.
func (c *WithdrawalCache) Persist(ctx context.Context, store KeyValueStore) error {
	payload, err := json.Marshal(c.Snapshot())
	if err != nil {
		return &types.CacheIOError{Op: "encode", Err: err}
	}
	if err := store.SaveKeyValue(ctx, StorageKey, string(payload)); err != nil {
		return &types.CacheIOError{Op: "write", Err: err}
	}
	return nil
}
