package tzktclient

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// pageFetcher returns a single page of at most limit records starting at offset.
type pageFetcher[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// fetchAllPages keeps requesting pages until one comes back shorter than
// pageSize. Any page failure abandons the whole fetch; no partial result is
// returned. A server that always answers with full pages is not guarded against.
func fetchAllPages[T any](ctx context.Context, pageSize int, fetch pageFetcher[T]) ([]T, error) {
	if pageSize <= 0 {
		return nil, errors.New("page size must be positive")
	}

	var all []T
	for offset := 0; ; offset += pageSize {
		page, err := fetch(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		log.Ctx(ctx).Debug().
			Int("offset", offset).
			Int("page_len", len(page)).
			Int("total", len(all)).
			Msg("fetched page")

		if len(page) < pageSize {
			return all, nil
		}
	}
}
