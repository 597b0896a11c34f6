package core

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultScopes covers the profile, identity and email of the account.
var DefaultScopes = []string{oidc.ScopeOpenID, "profile", "email"}

// OAuthProviderConfig defines the identity provider the login redirect
// targets. Only the public client id is needed: the code exchange happens on
// the backend.
type OAuthProviderConfig struct {
	ClientID string   `json:"client_id" validate:"required"`      // Registered client id of the application
	AuthURL  string   `json:"auth_url" validate:"required,url"`   // Authorization endpoint
	TokenURL string   `json:"token_url" validate:"omitempty,url"` // Token endpoint (informational, used by the backend)
	Scopes   []string `json:"scopes"`                             // Requested scopes (DefaultScopes when empty)
}

// NewGoogleOAuthProvider creates a Google provider configuration with defaults
func NewGoogleOAuthProvider(clientID string) OAuthProviderConfig {
	return OAuthProviderConfig{
		ClientID: clientID,
		AuthURL:  google.Endpoint.AuthURL,
		TokenURL: google.Endpoint.TokenURL,
		Scopes:   DefaultScopes,
	}
}

// NewCustomOAuthProvider creates a custom provider configuration
func NewCustomOAuthProvider(clientID, authURL, tokenURL string, scopes []string) OAuthProviderConfig {
	return OAuthProviderConfig{
		ClientID: clientID,
		AuthURL:  authURL,
		TokenURL: tokenURL,
		Scopes:   scopes,
	}
}

// DiscoverOAuthProvider builds a provider configuration from the issuer's
// OpenID Connect discovery document.
func DiscoverOAuthProvider(ctx context.Context, issuer, clientID string) (OAuthProviderConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return OAuthProviderConfig{}, fmt.Errorf("failed to discover oauth provider %s: %w", issuer, err)
	}

	ep := provider.Endpoint()
	return OAuthProviderConfig{
		ClientID: clientID,
		AuthURL:  ep.AuthURL,
		TokenURL: ep.TokenURL,
		Scopes:   DefaultScopes,
	}, nil
}

func (p OAuthProviderConfig) oauth2Config(redirectURL string) *oauth2.Config {
	scopes := p.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &oauth2.Config{
		ClientID:    p.ClientID,
		RedirectURL: redirectURL,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.AuthURL,
			TokenURL: p.TokenURL,
		},
	}
}

// validateOAuthState checks the state echoed by the provider against the
// value stored when the login started.
func validateOAuthState(received, expected string, found bool) error {
	if received == "" {
		return fmt.Errorf("%w: empty state", ErrStateMismatch)
	}
	if !found || expected == "" {
		return fmt.Errorf("%w: no login in progress", ErrStateMismatch)
	}
	if subtle.ConstantTimeCompare([]byte(received), []byte(expected)) != 1 {
		return ErrStateMismatch
	}
	return nil
}
