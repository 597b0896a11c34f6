package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tony0935929660/match-platform-web-sub000/api"
	"github.com/tony0935929660/match-platform-web-sub000/core"
	"github.com/tony0935929660/match-platform-web-sub000/core/storage"
	"github.com/tony0935929660/match-platform-web-sub000/internal/config"
)

// app is the wired session client used by every command.
type app struct {
	storage   core.Storage
	transport *core.Transport
	client    *api.Client
	session   *core.SessionManager
}

type appOptions struct {
	withOAuth bool
	navigator core.Navigator
}

func newApp(ctx context.Context, cfg config.Config, opts appOptions) (*app, error) {
	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	transport := core.NewTransport(nil)
	httpClient := transport.Client()
	httpClient.Timeout = cfg.Timeout
	client := api.NewClient(cfg.APIBaseURL, httpClient, nil)

	managerCfg := core.Config{
		Storage:   store,
		Transport: transport,
		AppOrigin: cfg.AppOrigin,
		Navigator: opts.navigator,
		Exchanger: client,
	}

	if opts.withOAuth {
		if !cfg.OAuthConfigured() {
			store.Close()
			return nil, fmt.Errorf("MATCH_OAUTH_CLIENT_ID and MATCH_OAUTH_AUTH_URL (or MATCH_OAUTH_ISSUER) are required to log in")
		}

		provider, err := resolveProvider(ctx, cfg)
		if err != nil {
			store.Close()
			return nil, err
		}
		managerCfg.OAuthProvider = provider
		managerCfg.RedirectURL = cfg.OAuthRedirectURL
	}

	manager, err := core.NewSessionManager(managerCfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	client.Tokens = manager

	if err := manager.Initialize(); err != nil {
		slog.Warn("Session storage could not be fully reconciled", "error", err)
	}

	return &app{
		storage:   store,
		transport: transport,
		client:    client,
		session:   manager,
	}, nil
}

func resolveProvider(ctx context.Context, cfg config.Config) (core.OAuthProviderConfig, error) {
	if cfg.OAuthIssuer != "" {
		return core.DiscoverOAuthProvider(ctx, cfg.OAuthIssuer, cfg.OAuthClientID)
	}
	return core.NewCustomOAuthProvider(cfg.OAuthClientID, cfg.OAuthAuthURL, cfg.OAuthTokenURL, nil), nil
}

func openStorage(cfg config.Config) (core.Storage, error) {
	opts := []storage.Option{
		storage.WithNamespace(cfg.Profile),
		storage.WithTimeout(cfg.Timeout),
	}

	var (
		store core.Storage
		err   error
	)
	switch cfg.Storage {
	case "memory":
		store = storage.NewMemoryStorage()
	case "sqlite":
		store, err = storage.NewSQLiteStorage(cfg.SQLitePath, opts...)
	case "postgres":
		store, err = storage.NewPostgresStorage(cfg.PostgresDSN, opts...)
	case "redis":
		store, err = storage.NewRedisStorage(storage.RedisConfig{
			Client: redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			}),
		}, opts...)
	default:
		err = fmt.Errorf("unsupported storage %q", cfg.Storage)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}

	key, err := cfg.SealingKey()
	if err != nil {
		store.Close()
		return nil, err
	}
	if key == nil {
		return store, nil
	}

	sealed, err := storage.NewSealedStorage(store, key)
	if err != nil {
		store.Close()
		return nil, err
	}
	return sealed, nil
}

func (a *app) Close() {
	a.session.Close()
	if err := a.storage.Close(); err != nil {
		slog.Error("Failed to close storage", "error", err)
	}
}

// printNavigator is the CLI stand-in for a browser redirect.
func printNavigator(w io.Writer) core.Navigator {
	return core.NavigatorFunc(func(url string) error {
		_, err := fmt.Fprintf(w, "Open this URL in your browser to log in:\n\n  %s\n\n", url)
		return err
	})
}
