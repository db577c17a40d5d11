package config

import (
	"errors"
	"time"
)

const (
	defaultServerReadTimeout  = 15 * time.Second
	defaultServerWriteTimeout = 60 * time.Second
)

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

func (cfg *ServerConfig) Validate() error {
	if cfg.Host == "" {
		return errors.New("server host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return errors.New("server port must be between 1 and 65535")
	}

	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultServerReadTimeout
	}
	// refresh runs a whole load cycle inside the request
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultServerWriteTimeout
	}

	return nil
}
