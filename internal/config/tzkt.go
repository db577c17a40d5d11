package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/stakeflow/stakeflow-indexer/pkg"
)

const (
	defaultTzktPageSize      = 10000
	defaultTzktTimeout       = 5 * time.Minute
	defaultTzktMaxRetryTimes = 3
	defaultTzktRetryInterval = 2 * time.Second
)

// TzktConfig describes the block explorer the feeds are read from and the
// three addresses the dashboard is bound to.
type TzktConfig struct {
	URL      string        `mapstructure:"url"`
	// Timeout bounds each page request, not the whole feed.
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page-size"`
	// MaxRetryTimes and RetryInterval only apply to rate limited (429) responses.
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
	BakerAddress  string        `mapstructure:"baker-address"`
	ProxyContract string        `mapstructure:"proxy-contract"`
	TokenContract string        `mapstructure:"token-contract"`
}

func (cfg *TzktConfig) Validate() error {
	if cfg.URL == "" {
		return errors.New("tzkt url is required")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return fmt.Errorf("invalid tzkt url: %w", err)
	}
	if cfg.BakerAddress == "" {
		return errors.New("tzkt baker-address is required")
	}
	if err := pkg.ValidateImplicitAddress(cfg.BakerAddress); err != nil {
		return fmt.Errorf("invalid tzkt baker-address: %w", err)
	}
	if cfg.ProxyContract == "" {
		return errors.New("tzkt proxy-contract is required")
	}
	if err := pkg.ValidateContractAddress(cfg.ProxyContract); err != nil {
		return fmt.Errorf("invalid tzkt proxy-contract: %w", err)
	}
	if cfg.TokenContract == "" {
		return errors.New("tzkt token-contract is required")
	}
	if err := pkg.ValidateContractAddress(cfg.TokenContract); err != nil {
		return fmt.Errorf("invalid tzkt token-contract: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTzktTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultTzktPageSize
	}
	if cfg.MaxRetryTimes == 0 {
		cfg.MaxRetryTimes = defaultTzktMaxRetryTimes
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultTzktRetryInterval
	}

	return nil
}
