package config

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for matchctl.
type Config struct {
	APIBaseURL string `env:"MATCH_API_BASE_URL,default=http://localhost:3000/api"`
	AppOrigin  string `env:"MATCH_APP_ORIGIN,default=http://localhost:5173"`

	OAuthClientID    string `env:"MATCH_OAUTH_CLIENT_ID"`
	OAuthAuthURL     string `env:"MATCH_OAUTH_AUTH_URL"`
	OAuthTokenURL    string `env:"MATCH_OAUTH_TOKEN_URL"`
	OAuthIssuer      string `env:"MATCH_OAUTH_ISSUER"`
	OAuthRedirectURL string `env:"MATCH_OAUTH_REDIRECT_URL"`

	Storage       string        `env:"MATCH_STORAGE,default=sqlite"`
	SQLitePath    string        `env:"MATCH_SQLITE_PATH,default=match-session.db"`
	PostgresDSN   string        `env:"MATCH_POSTGRES_DSN"`
	RedisAddr     string        `env:"MATCH_REDIS_ADDR,default=localhost:6379"`
	RedisPassword string        `env:"MATCH_REDIS_PASSWORD"`
	StorageKey    string        `env:"MATCH_STORAGE_KEY"`
	Profile       string        `env:"MATCH_PROFILE,default=default"`
	Timeout       time.Duration `env:"MATCH_TIMEOUT,default=10s"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith returns a Config populated from lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage {
	case "sqlite", "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("MATCH_POSTGRES_DSN is required for postgres storage")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("MATCH_REDIS_ADDR is required for redis storage")
		}
	default:
		return fmt.Errorf("unsupported storage %q", c.Storage)
	}

	if c.StorageKey != "" {
		if _, err := c.SealingKey(); err != nil {
			return err
		}
	}
	return nil
}

// SealingKey decodes MATCH_STORAGE_KEY. It returns nil when sealing is off.
func (c Config) SealingKey() ([]byte, error) {
	if c.StorageKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("MATCH_STORAGE_KEY must be hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("MATCH_STORAGE_KEY must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// OAuthConfigured reports whether enough provider settings exist to log in.
func (c Config) OAuthConfigured() bool {
	return c.OAuthClientID != "" && (c.OAuthAuthURL != "" || c.OAuthIssuer != "")
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
