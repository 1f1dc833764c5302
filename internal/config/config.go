// internal/config/config.go
//
// Process configuration from the environment.
// A `.env` file in the working directory is loaded first (development), then
// variables are parsed into Config. Defaults match a local single-process run
// with the in-memory store.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/store"
)

// Config holds every tunable of the server.
type Config struct {
	Port      string `env:"PORT"       envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json | console

	JWTSecret      string `env:"JWT_SECRET"       envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME"      envDefault:"emoji_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN"    envDefault:"http://localhost:5173"`

	KVBackend   string `env:"KV_BACKEND"   envDefault:"memory"` // memory | sqlite | postgres
	SQLitePath  string `env:"SQLITE_PATH"  envDefault:"./data/kv.db"`
	DatabaseURL string `env:"DATABASE_URL"`

	GridSize         int           `env:"GRID_SIZE"          envDefault:"20"`
	MaxChatHistory   int           `env:"MAX_CHAT_HISTORY"   envDefault:"100"`
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH" envDefault:"200"`
	PlayerTimeout    time.Duration `env:"PLAYER_TIMEOUT"     envDefault:"30s"`
	CleanupInterval  time.Duration `env:"CLEANUP_INTERVAL"   envDefault:"10s"`

	Version string `env:"APP_VERSION"`
}

// Load reads `.env` (if present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the current environment without touching `.env`.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.GridSize <= 0 {
		errs = append(errs, errors.New("GRID_SIZE must be positive"))
	}
	if c.MaxChatHistory <= 0 {
		errs = append(errs, errors.New("MAX_CHAT_HISTORY must be positive"))
	}
	if c.MaxMessageLength <= 0 {
		errs = append(errs, errors.New("MAX_MESSAGE_LENGTH must be positive"))
	}
	if c.PlayerTimeout <= 0 {
		errs = append(errs, errors.New("PLAYER_TIMEOUT must be positive"))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, errors.New("CLEANUP_INTERVAL must be positive"))
	}
	switch c.KVBackend {
	case store.BackendMemory, store.BackendSQLite:
	case store.BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown KV_BACKEND %q", c.KVBackend))
	}
	return errors.Join(errs...)
}

// StoreTarget returns the path or DSN for the configured backend.
func (c Config) StoreTarget() string {
	if c.KVBackend == store.BackendPostgres {
		return c.DatabaseURL
	}
	return c.SQLitePath
}

// JWTTTL is the lifetime of minted tokens.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}
