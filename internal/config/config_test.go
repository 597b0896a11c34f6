package config

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			check: func(t *testing.T, cfg Config) {
				if cfg.Storage != "sqlite" || cfg.SQLitePath != "match-session.db" {
					t.Errorf("storage = %q %q", cfg.Storage, cfg.SQLitePath)
				}
				if cfg.Profile != "default" {
					t.Errorf("Profile = %q", cfg.Profile)
				}
				if cfg.Timeout != 10*time.Second {
					t.Errorf("Timeout = %v", cfg.Timeout)
				}
				if cfg.AppOrigin != "http://localhost:5173" {
					t.Errorf("AppOrigin = %q", cfg.AppOrigin)
				}
				if cfg.OAuthConfigured() {
					t.Error("OAuthConfigured() = true without a client id")
				}
			},
		},
		{
			name: "oauth_with_issuer",
			env: map[string]string{
				"MATCH_OAUTH_CLIENT_ID": "cid",
				"MATCH_OAUTH_ISSUER":    "https://accounts.google.com",
				"MATCH_TIMEOUT":         "3s",
			},
			check: func(t *testing.T, cfg Config) {
				if !cfg.OAuthConfigured() {
					t.Error("OAuthConfigured() = false")
				}
				if cfg.Timeout != 3*time.Second {
					t.Errorf("Timeout = %v", cfg.Timeout)
				}
			},
		},
		{
			name: "sealed_storage",
			env: map[string]string{
				"MATCH_STORAGE_KEY": strings.Repeat("ab", 32),
			},
			check: func(t *testing.T, cfg Config) {
				key, err := cfg.SealingKey()
				if err != nil || len(key) != 32 {
					t.Errorf("SealingKey() = (%d bytes, %v)", len(key), err)
				}
			},
		},
		{
			name:    "postgres_without_dsn",
			env:     map[string]string{"MATCH_STORAGE": "postgres"},
			wantErr: "MATCH_POSTGRES_DSN",
		},
		{
			name:    "unknown_storage",
			env:     map[string]string{"MATCH_STORAGE": "cookies"},
			wantErr: "unsupported storage",
		},
		{
			name:    "short_key",
			env:     map[string]string{"MATCH_STORAGE_KEY": "abcd"},
			wantErr: "32 bytes",
		},
		{
			name:    "non_hex_key",
			env:     map[string]string{"MATCH_STORAGE_KEY": "zz"},
			wantErr: "hex",
		},
		{
			name:    "bad_timeout",
			env:     map[string]string{"MATCH_TIMEOUT": "soon"},
			wantErr: "soon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(tt.env))

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("LoadWith() expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("LoadWith() error = %v, expected to contain %q", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("LoadWith() unexpected error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
