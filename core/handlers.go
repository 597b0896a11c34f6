package core

import (
	"errors"
	"log/slog"
	"net/http"
)

// OAuthResponse represents the response for login operations
type OAuthResponse struct {
	URL        string `json:"url,omitempty"`         // Provider authorization URL (for the login request)
	RedirectTo string `json:"redirect_to,omitempty"` // Where to send the user after the callback
	User       *User  `json:"user,omitempty"`        // Logged-in user (for the callback)
	StatusCode int    `json:"-"`                     // HTTP status code (not serialized)
	Error      string `json:"error,omitempty"`       // Error message if any
}

// LoginHandler starts the OAuth flow for an HTTP request. The optional
// "redirect" query parameter is remembered for after the callback.
func (m *SessionManager) LoginHandler(r *http.Request) OAuthResponse {
	var target any
	if v := r.URL.Query().Get("redirect"); v != "" {
		target = v
	}

	authURL, err := m.LoginURL(target)
	if err != nil {
		slog.Error("Failed to start login", "error", err)
		return OAuthResponse{
			StatusCode: http.StatusInternalServerError,
			Error:      "Failed to start login",
		}
	}

	return OAuthResponse{
		StatusCode: http.StatusFound,
		URL:        authURL,
	}
}

// CallbackHandler completes the OAuth flow for the provider's redirect.
func (m *SessionManager) CallbackHandler(r *http.Request) OAuthResponse {
	result, err := m.HandleCallback(r.Context(), r.URL.Query())
	if err != nil {
		return callbackErrorResponse(err)
	}

	return OAuthResponse{
		StatusCode: http.StatusFound,
		RedirectTo: result.RedirectTo,
		User:       result.User,
	}
}

func callbackErrorResponse(err error) OAuthResponse {
	var providerErr *ProviderError

	switch {
	case errors.Is(err, ErrStateMismatch):
		return OAuthResponse{StatusCode: http.StatusBadRequest, Error: "Invalid state parameter"}
	case errors.Is(err, ErrMissingCode):
		return OAuthResponse{StatusCode: http.StatusBadRequest, Error: "Missing authorization code"}
	case errors.As(err, &providerErr):
		return OAuthResponse{StatusCode: http.StatusUnauthorized, Error: providerErr.Error()}
	case errors.Is(err, ErrSessionRejected):
		return OAuthResponse{StatusCode: http.StatusUnauthorized, Error: "Login was rejected"}
	case errors.Is(err, ErrExchangerRequired):
		slog.Error("Callback received without exchanger configured")
		return OAuthResponse{StatusCode: http.StatusInternalServerError, Error: "Internal server error"}
	default:
		return OAuthResponse{StatusCode: http.StatusBadGateway, Error: err.Error()}
	}
}
