package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// Callback errors surfaced to the callback UI
var (
	// ErrStateMismatch is returned when the callback state does not match the
	// stored anti-forgery value, which indicates a possibly forged redirect
	ErrStateMismatch = errors.New("oauth state mismatch")
	// ErrMissingCode is returned when the callback carries neither code nor error
	ErrMissingCode = errors.New("missing authorization code")
	// ErrExchangerRequired is returned by HandleCallback without a backend exchanger
	ErrExchangerRequired = errors.New("exchanger is required")
	// ErrSessionRejected is returned when the backend issued a token that is
	// already expired or malformed
	ErrSessionRejected = errors.New("backend issued an unusable session")
)

// ProviderError is the error reported by the identity provider on the
// callback (error / error_description query parameters).
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return "oauth provider error: " + e.Code
	}
	return fmt.Sprintf("oauth provider error: %s: %s", e.Code, e.Description)
}

// Exchanger trades the provider's authorization code for the application's
// own identity record and bearer token. It is implemented by the backend API
// client.
type Exchanger interface {
	Exchange(ctx context.Context, code, redirectURI string) (*User, string, error)
}

// CallbackResult is the outcome of a successful callback.
type CallbackResult struct {
	User       *User  `json:"user"`
	RedirectTo string `json:"redirect_to"`
}

// LoginURL stores a fresh anti-forgery state (and the redirect target when
// it is a local path such as "/clubs/42") and returns the provider
// authorization URL. Any other redirectTarget value, including nil and
// absolute URLs, clears a stale target.
func (m *SessionManager) LoginURL(redirectTarget any) (string, error) {
	if m.oauth == nil {
		return "", ErrProviderNotConfigured
	}

	state, err := generateSecureToken(stateBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}

	if err := m.storage.Set(KeyOAuthState, state); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	if target, ok := redirectTargetFrom(redirectTarget); ok {
		if err := m.storage.Set(KeyLoginRedirect, target); err != nil {
			return "", fmt.Errorf("failed to store login redirect: %w", err)
		}
	} else if err := m.removeKey(KeyLoginRedirect); err != nil {
		return "", err
	}

	return m.oauth.AuthCodeURL(state), nil
}

// Login starts the OAuth flow and hands the authorization URL to the
// configured Navigator. On success the application is expected to leave
// (the page is replaced by the provider's).
func (m *SessionManager) Login(redirectTarget any) error {
	if m.navigator == nil {
		return ErrNavigatorRequired
	}

	authURL, err := m.LoginURL(redirectTarget)
	if err != nil {
		return err
	}

	slog.Debug("Redirecting to identity provider", "redirect_uri", m.redirectURL)
	return m.navigator.Navigate(authURL)
}

// RedirectURL returns the callback URL sent to the provider.
func (m *SessionManager) RedirectURL() string {
	return m.redirectURL
}

// HandleCallback finishes the login when the provider redirects back. The
// stored state is consumed whatever the outcome. State mismatches, provider
// errors and exchange failures are returned to the caller; they need the
// user to start over.
func (m *SessionManager) HandleCallback(ctx context.Context, query url.Values) (*CallbackResult, error) {
	expected, found, err := m.storage.Get(KeyOAuthState)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth state: %w", err)
	}
	if err := m.storage.Remove(KeyOAuthState); err != nil {
		slog.Error("Failed to delete oauth state", "error", err)
	}

	if err := validateOAuthState(query.Get("state"), expected, found); err != nil {
		slog.Warn("OAuth callback state rejected", "error", err)
		return nil, err
	}

	if code := query.Get("error"); code != "" {
		slog.Warn("OAuth callback returned error",
			"error", code,
			"desc", query.Get("error_description"))
		return nil, &ProviderError{Code: code, Description: query.Get("error_description")}
	}

	code := query.Get("code")
	if code == "" {
		return nil, ErrMissingCode
	}

	if m.exchanger == nil {
		return nil, ErrExchangerRequired
	}

	user, token, err := m.exchanger.Exchange(ctx, code, m.redirectURL)
	if err != nil {
		slog.Error("Failed to exchange authorization code", "error", err)
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := m.CompleteLogin(user, token); err != nil {
		return nil, err
	}
	if !m.IsAuthenticated() {
		return nil, ErrSessionRejected
	}

	target := "/"
	if v, ok, err := m.storage.Get(KeyLoginRedirect); err != nil {
		slog.Error("Failed to read login redirect", "error", err)
	} else if ok && isLocalPath(v) {
		target = v
	} else if ok && v != "" {
		slog.Warn("Ignoring stored login redirect that is not a local path")
	}
	if err := m.storage.Remove(KeyLoginRedirect); err != nil {
		slog.Error("Failed to delete login redirect", "error", err)
	}

	return &CallbackResult{
		User:       m.User(),
		RedirectTo: target,
	}, nil
}
