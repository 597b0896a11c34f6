// Package api is the client of the match platform REST backend. Only the
// calls the session flow depends on live here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tony0935929660/match-platform-web-sub000/core"
)

// RequestIDHeader carries a per-request id for correlating backend logs.
const RequestIDHeader = "X-Request-ID"

// ErrNotAuthenticated is returned by calls that need a bearer token when the
// token source has none.
var ErrNotAuthenticated = errors.New("not authenticated")

// Error is a non-2xx answer from the backend.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// TokenSource supplies the current bearer token. *core.SessionManager
// satisfies it.
type TokenSource interface {
	Token() string
}

// Client talks to the backend. HTTPClient should be built from the shared
// core.Transport so 401 answers reach the session manager.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
}

var _ core.Exchanger = (*Client)(nil)

// NewClient creates a backend client.
func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: httpClient,
		Tokens:     tokens,
	}
}

type exchangeRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri"`
}

type exchangeResponse struct {
	User  *core.User `json:"user"`
	Token string     `json:"token"`
}

// Exchange trades the provider authorization code for the application's
// identity record and bearer token.
func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (*core.User, string, error) {
	var out exchangeResponse
	err := c.do(ctx, http.MethodPost, "/auth/oauth/callback", exchangeRequest{
		Code:        code,
		RedirectURI: redirectURI,
	}, false, &out)
	if err != nil {
		return nil, "", err
	}

	if out.User == nil || out.Token == "" {
		return nil, "", errors.New("backend response is missing user or token")
	}

	return out.User, out.Token, nil
}

// Me returns the profile of the logged-in account.
func (c *Client) Me(ctx context.Context) (*core.User, error) {
	var user core.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, authenticated bool, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		token := ""
		if c.Tokens != nil {
			token = c.Tokens.Token()
		}
		if token == "" {
			return ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	}

	return &Error{StatusCode: resp.StatusCode, Message: msg}
}
