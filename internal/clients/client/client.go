package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stakeflow/stakeflow-indexer/internal/observability/metrics"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
)

// maxErrorBodySize bounds how much of a failed response body ends up in an error.
const maxErrorBodySize = 512

type BaseClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() time.Duration
	GetHttpClient() *http.Client
}

type HttpClientOptions struct {
	// Timeout overrides the client default when positive.
	Timeout time.Duration
	// Path is appended to the base url, query string included.
	Path string
	// TemplatePath is the low-cardinality path used as a metrics label.
	TemplatePath string
	Headers      map[string]string
}

// SendRequest performs one JSON request against the client's base url and
// decodes the response body into R. Every failure is returned as a
// *types.TransportError; 429 responses additionally wrap types.ErrRateLimitExceeded.
func SendRequest[I any, R any](
	ctx context.Context, client BaseClient, method string, opts *HttpClientOptions, input *I,
) (*R, error) {
	timeout := client.GetDefaultRequestTimeout()
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := client.GetBaseURL() + opts.Path

	var body io.Reader
	if input != nil {
		payload, err := json.Marshal(input)
		if err != nil {
			return nil, &types.TransportError{URL: url, Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &types.TransportError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if input != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	observe := metrics.StartClientRequestDurationTimer(client.GetBaseURL(), method, opts.TemplatePath)

	resp, err := client.GetHttpClient().Do(req)
	if err != nil {
		observe(0)
		return nil, &types.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	observe(resp.StatusCode)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &types.TransportError{URL: url, StatusCode: resp.StatusCode, Err: types.ErrRateLimitExceeded}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &types.TransportError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", bytes.TrimSpace(snippet)),
		}
	}

	var out R
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("url", url).Msg("failed to decode response body")
		return nil, &types.TransportError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return &out, nil
}
