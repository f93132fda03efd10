package config

import (
	"fmt"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

// Config holds all server configuration, populated from flags and
// environment variables (environment wins over defaults, flags over both).
type Config struct {
	Addr       string        `conf:"default::8080,flag:addr,env:DANZASTOCK_ADDR"`
	DBPath     string        `conf:"default:danzastock.sqlite3,flag:db,env:DANZASTOCK_DB"`
	LogPath    string        `conf:"flag:log,env:DANZASTOCK_LOG"`
	Collection string        `conf:"default:inventario_compartido,flag:collection,env:DANZASTOCK_COLLECTION"`
	SessionTTL time.Duration `conf:"default:168h,flag:session-ttl,env:DANZASTOCK_SESSION_TTL"`
}

// Load parses configuration. A .env file in the working directory is read
// first if present; missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	help, err := conf.Parse("", &cfg)
	if err != nil {
		if err == conf.ErrHelpWanted {
			return nil, fmt.Errorf("%s", help)
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be positive, got %s", cfg.SessionTTL)
	}

	return &cfg, nil
}
