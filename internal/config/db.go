package config

import (
	"errors"
	"fmt"
)

const (
	DbTypeSQLite = "sqlite"
	DbTypeMongo  = "mongo"
)

type DbConfig struct {
	Type string `mapstructure:"type"`
	// Path is the sqlite database file.
	Path     string `mapstructure:"path"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"db-name"`
	Address  string `mapstructure:"address"`
}

func (cfg *DbConfig) Validate() error {
	if cfg.Type == "" {
		cfg.Type = DbTypeSQLite
	}

	switch cfg.Type {
	case DbTypeSQLite:
		if cfg.Path == "" {
			return errors.New("db path is required for sqlite")
		}
	case DbTypeMongo:
		if cfg.Address == "" {
			return errors.New("db address is required for mongo")
		}
		if cfg.DbName == "" {
			return errors.New("db db-name is required for mongo")
		}
		if cfg.Username == "" {
			return errors.New("db username is required for mongo")
		}
		if cfg.Password == "" {
			return errors.New("db password is required for mongo")
		}
	default:
		return fmt.Errorf("unsupported db type %q", cfg.Type)
	}

	return nil
}
