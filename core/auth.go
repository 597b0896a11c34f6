// Package core provides the client-side session manager of the match platform.
//
// The SessionManager is the single source of truth for who is logged in and
// with which bearer token. It mirrors the session into durable storage,
// purges expired tokens, clears the session when the backend rejects the
// token with 401, and drives the redirect-based OAuth login.
//
// ## Quick Start:
//
//	transport := core.NewTransport(nil)
//	manager, err := core.NewSessionManager(core.Config{
//		Storage:       storage,
//		Transport:     transport,
//		OAuthProvider: core.NewGoogleOAuthProvider(clientID),
//		AppOrigin:     "http://localhost:5173",
//		Navigator:     navigator,
//		Exchanger:     apiClient,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer manager.Close()
//
//	if err := manager.Initialize(); err != nil {
//		log.Fatal(err)
//	}
//
//	// Every API call made with transport.Client() is now watched for 401s.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"
)

// DefaultCallbackPath is appended to Config.AppOrigin when no explicit
// redirect URL is configured.
const DefaultCallbackPath = "/auth/callback"

// Common session errors returned by the library
var (
	// ErrStorageRequired is returned when no durable storage is configured
	ErrStorageRequired = errors.New("storage is required")
	// ErrAlreadyInitialized is returned when Initialize is called twice
	ErrAlreadyInitialized = errors.New("session manager already initialized")
	// ErrInvalidUser is returned when a login carries no usable identity record
	ErrInvalidUser = errors.New("invalid user record")
	// ErrProviderNotConfigured is returned by login operations without an OAuth provider
	ErrProviderNotConfigured = errors.New("oauth provider not configured")
	// ErrNavigatorRequired is returned by Login when there is nothing to navigate with
	ErrNavigatorRequired = errors.New("navigator is required")
)

// Navigator performs the full-page redirect to the identity provider.
type Navigator interface {
	Navigate(url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string) error

// Navigate calls f(url).
func (f NavigatorFunc) Navigate(url string) error { return f(url) }

// Config contains the configuration for the SessionManager
type Config struct {
	Storage       Storage             // Durable storage (required)
	Transport     *Transport          // Shared request function watched for 401 responses
	OAuthProvider OAuthProviderConfig // Identity provider for Login (optional for read-only use)
	RedirectURL   string              // Callback URL registered with the provider
	AppOrigin     string              // Origin used to derive the callback URL when RedirectURL is empty
	CallbackPath  string              // Path of the callback below AppOrigin (default DefaultCallbackPath)
	Navigator     Navigator           // Performs the login redirect
	Exchanger     Exchanger           // Backend code exchange used by HandleCallback

	MetricsRegisterer prometheus.Registerer // Optional registry for session counters
	Now               func() time.Time      // Clock (default time.Now)
}

// SessionManager owns the authenticated user and bearer token.
type SessionManager struct {
	storage     Storage
	transport   *Transport
	oauth       *oauth2.Config
	redirectURL string
	navigator   Navigator
	exchanger   Exchanger
	validator   *validator.Validate
	metrics     *Metrics
	now         func() time.Time

	mu          sync.RWMutex
	user        *User
	token       string
	loading     bool
	initialized bool
	unregister  func()
}

// NewSessionManager creates a session manager. Nothing is read from storage
// until Initialize is called.
func NewSessionManager(cfg Config) (*SessionManager, error) {
	if cfg.Storage == nil {
		return nil, ErrStorageRequired
	}

	validate := validator.New()

	metrics, err := NewMetrics(cfg.MetricsRegisterer)
	if err != nil {
		return nil, fmt.Errorf("failed to register session metrics: %w", err)
	}

	m := &SessionManager{
		storage:   cfg.Storage,
		transport: cfg.Transport,
		navigator: cfg.Navigator,
		exchanger: cfg.Exchanger,
		validator: validate,
		metrics:   metrics,
		now:       cfg.Now,
		loading:   true,
	}
	if m.now == nil {
		m.now = time.Now
	}

	if cfg.OAuthProvider.ClientID != "" || cfg.OAuthProvider.AuthURL != "" {
		if err := validate.Struct(cfg.OAuthProvider); err != nil {
			return nil, fmt.Errorf("invalid oauth provider: %s", formatValidationErrors(err))
		}

		m.redirectURL = resolveRedirectURL(cfg)
		if m.redirectURL == "" {
			return nil, errors.New("redirect URL or app origin is required for login")
		}
		m.oauth = cfg.OAuthProvider.oauth2Config(m.redirectURL)
	}

	return m, nil
}

func resolveRedirectURL(cfg Config) string {
	if cfg.RedirectURL != "" {
		return cfg.RedirectURL
	}
	if cfg.AppOrigin == "" {
		return ""
	}

	path := cfg.CallbackPath
	if path == "" {
		path = DefaultCallbackPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(cfg.AppOrigin, "/") + path
}

// Initialize loads the session from durable storage and starts watching the
// transport for rejected credentials. It must be called once, before any
// consumer reads session state. A stored token that is expired or malformed
// discards the whole stored session; a corrupted user record drops only the
// user slot. The returned error reports storage failures while reconciling;
// in-memory state is always left consistent.
func (m *SessionManager) Initialize() error {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}
	m.initialized = true
	m.mu.Unlock()

	user, token, err := m.load()

	m.mu.Lock()
	m.user = user
	m.token = token
	m.loading = false
	if m.transport != nil {
		m.unregister = m.transport.RegisterResponseInterceptor(m.interceptResponse)
	}
	m.mu.Unlock()

	slog.Debug("Session initialized", "authenticated", user != nil && token != "")
	return err
}

func (m *SessionManager) load() (*User, string, error) {
	token, hasToken, err := m.storage.Get(KeyToken)
	if err != nil {
		slog.Warn("Failed to read stored token, discarding session", "error", err)
		return nil, "", m.discardStored(ClearReasonCorrupt)
	}

	if hasToken && token != "" {
		if ok, reason := m.checkToken(token); !ok {
			slog.Info("Stored token rejected, discarding session",
				"reason", reason,
				"token_prefix", tokenPrefix(token))
			return nil, "", m.discardStored(reason)
		}
	}

	raw, hasUser, err := m.storage.Get(KeyUser)
	if err != nil {
		slog.Warn("Failed to read stored user record, dropping it", "error", err)
		m.metrics.Clears.WithLabelValues(ClearReasonCorrupt).Inc()
		return nil, token, m.removeKey(KeyUser)
	}
	if !hasUser {
		return nil, token, nil
	}

	user, err := m.parseUser(raw)
	if err != nil {
		slog.Warn("Stored user record is corrupted, dropping it", "error", err)
		m.metrics.Clears.WithLabelValues(ClearReasonCorrupt).Inc()
		return nil, token, m.removeKey(KeyUser)
	}

	return user, token, nil
}

func (m *SessionManager) parseUser(raw string) (*User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("failed to decode user record: %w", err)
	}
	if err := m.validator.Struct(&u); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUser, formatValidationErrors(err))
	}
	return &u, nil
}

// checkToken evaluates token against the manager clock.
func (m *SessionManager) checkToken(token string) (bool, string) {
	exp, ok, err := TokenExpiry(token)
	if err != nil {
		return false, ClearReasonCorrupt
	}
	if ok && !m.now().Before(exp) {
		return false, ClearReasonExpired
	}
	return true, ""
}

// User returns a copy of the logged-in user, or nil.
func (m *SessionManager) User() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Token returns the bearer token, or "" when there is none.
func (m *SessionManager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// IsAuthenticated reports whether both a user and a token are present. It is
// computed on every call.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.token != ""
}

// IsLoading reports whether Initialize has not completed yet.
func (m *SessionManager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// CompleteLogin installs the identity and token returned by the backend after
// the provider round-trip. Both values are set in memory together and then
// written through to storage one slot at a time. An already expired token is
// purged immediately, leaving the session logged out.
func (m *SessionManager) CompleteLogin(user *User, token string) error {
	if user == nil {
		return ErrInvalidUser
	}
	if err := m.validator.Struct(user); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUser, formatValidationErrors(err))
	}

	u := *user

	m.mu.Lock()
	m.user = &u
	m.token = token
	m.mu.Unlock()

	if err := m.persistUser(&u); err != nil {
		return err
	}
	if err := m.persistToken(token); err != nil {
		return err
	}

	if m.IsAuthenticated() {
		m.metrics.Logins.Inc()
		slog.Info("Login completed", "user_id", u.ID)
	}
	return nil
}

func (m *SessionManager) persistUser(u *User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user record: %w", err)
	}
	if err := m.storage.Set(KeyUser, string(data)); err != nil {
		return fmt.Errorf("failed to store user record: %w", err)
	}
	return nil
}

func (m *SessionManager) persistToken(token string) error {
	if token == "" {
		return m.removeKey(KeyToken)
	}

	if ok, reason := m.checkToken(token); !ok {
		slog.Warn("Refusing to keep invalid token, clearing session",
			"reason", reason,
			"token_prefix", tokenPrefix(token))
		return m.clear(reason)
	}

	if err := m.storage.Set(KeyToken, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Logout clears the session from memory and durable storage. It is safe to
// call when already logged out.
func (m *SessionManager) Logout() error {
	return m.clear(ClearReasonLogout)
}

// clear empties memory first, then both storage slots.
func (m *SessionManager) clear(reason string) error {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()

	return m.discardStored(reason)
}

func (m *SessionManager) discardStored(reason string) error {
	m.metrics.Clears.WithLabelValues(reason).Inc()
	return errors.Join(m.removeKey(KeyUser), m.removeKey(KeyToken))
}

func (m *SessionManager) removeKey(key string) error {
	if err := m.storage.Remove(key); err != nil {
		return fmt.Errorf("failed to remove %s from storage: %w", key, err)
	}
	return nil
}

// interceptResponse clears the session when the backend answers 401 while a
// token is stored or the token slot cannot be read. Storage is consulted instead of memory so a response that
// races a state update still sees what is actually persisted.
//
// A 401 from a request sent before a fresh login can still arrive after
// CompleteLogin and wipe the new session. Nothing here orders the two.
func (m *SessionManager) interceptResponse(req *http.Request, resp *http.Response) {
	if resp.StatusCode != http.StatusUnauthorized {
		return
	}

	// an unreadable token slot is treated like a stored token
	_, found, err := m.storage.Get(KeyToken)
	if err != nil {
		slog.Error("Failed to read stored token after 401, clearing session", "error", err)
	} else if !found {
		return
	}

	slog.Info("Backend rejected credentials, clearing session",
		"method", req.Method,
		"url", req.URL.Redacted())

	if err := m.clear(ClearReasonUnauthorized); err != nil {
		slog.Error("Failed to clear session after 401", "error", err)
	}
}

// Close stops watching the transport. Storage is owned by the caller and is
// left open.
func (m *SessionManager) Close() {
	m.mu.Lock()
	unregister := m.unregister
	m.unregister = nil
	m.mu.Unlock()

	if unregister != nil {
		unregister()
	}
}
