package config

import (
	"errors"
	"time"
)

const (
	defaultResolverBatchSize       = 2
	defaultResolverStaggerInterval = 300 * time.Millisecond
	defaultResolverBatchPause      = 500 * time.Millisecond
	defaultWithdrawalQueueField    = "withdrawal_queue"
	defaultBaseAmountField         = "xtz_amount"
	defaultDerivativeAmountField   = "token_amount"
	defaultMatchTolerance          = 0.1
)

// ResolverConfig controls how withdrawal requests are turned into base token amounts.
type ResolverConfig struct {
	// BatchSize is the maximum number of detail lookups in flight at once.
	BatchSize       int           `mapstructure:"batch-size"`
	StaggerInterval time.Duration `mapstructure:"stagger-interval"`
	BatchPause      time.Duration `mapstructure:"batch-pause"`

	// Storage layout of the liquid staking contract.
	WithdrawalQueueField  string `mapstructure:"withdrawal-queue-field"`
	BaseAmountField       string `mapstructure:"base-amount-field"`
	DerivativeAmountField string `mapstructure:"derivative-amount-field"`

	// MatchTolerance is the absolute difference, in display units, under which
	// a finalization is considered to settle a withdrawal request. Zero only
	// pairs exact amounts; the default applies when the key is absent.
	MatchTolerance float64 `mapstructure:"match-tolerance"`
}

func DefaultResolverConfig() *ResolverConfig {
	return &ResolverConfig{
		BatchSize:             defaultResolverBatchSize,
		StaggerInterval:       defaultResolverStaggerInterval,
		BatchPause:            defaultResolverBatchPause,
		WithdrawalQueueField:  defaultWithdrawalQueueField,
		BaseAmountField:       defaultBaseAmountField,
		DerivativeAmountField: defaultDerivativeAmountField,
		MatchTolerance:        defaultMatchTolerance,
	}
}

func (cfg *ResolverConfig) Validate() error {
	if cfg.BatchSize < 0 {
		return errors.New("resolver batch-size can't be negative")
	}
	if cfg.StaggerInterval < 0 {
		return errors.New("resolver stagger-interval can't be negative")
	}
	if cfg.BatchPause < 0 {
		return errors.New("resolver batch-pause can't be negative")
	}
	if cfg.MatchTolerance < 0 {
		return errors.New("resolver match-tolerance can't be negative")
	}

	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultResolverBatchSize
	}
	if cfg.WithdrawalQueueField == "" {
		cfg.WithdrawalQueueField = defaultWithdrawalQueueField
	}
	if cfg.BaseAmountField == "" {
		cfg.BaseAmountField = defaultBaseAmountField
	}
	if cfg.DerivativeAmountField == "" {
		cfg.DerivativeAmountField = defaultDerivativeAmountField
	}

	return nil
}
