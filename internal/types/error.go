package types

import (
	"errors"
	"fmt"
)

// ErrRateLimitExceeded is wrapped by a TransportError for HTTP 429 responses.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// TransportError is returned for any network or HTTP failure while talking to
// the block explorer. It is fatal for a feed fetch.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request to %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsRateLimitError reports whether err is a 429 answered by the upstream API.
func IsRateLimitError(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// DetailLookupError is returned when a transaction detail can't be fetched or
// doesn't contain a usable withdrawal amount. It is always recovered locally.
type DetailLookupError struct {
	Hash    string
	Counter int64
	Err     error
}

func (e *DetailLookupError) Error() string {
	return fmt.Sprintf("detail lookup for %s/%d failed: %v", e.Hash, e.Counter, e.Err)
}

func (e *DetailLookupError) Unwrap() error {
	return e.Err
}

func IsDetailLookupError(err error) bool {
	var target *DetailLookupError
	return errors.As(err, &target)
}

// CacheIOError is returned when the persisted withdrawal cache can't be read or written.
type CacheIOError struct {
	Op  string
	Err error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("withdrawal cache %s failed: %v", e.Op, e.Err)
}

func (e *CacheIOError) Unwrap() error {
	return e.Err
}

func IsCacheIOError(err error) bool {
	var target *CacheIOError
	return errors.As(err, &target)
}
