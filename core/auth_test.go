package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestSessionManager_NewSessionManager tests the SessionManager constructor
func TestSessionManager_NewSessionManager(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "storage_only",
			config: Config{
				Storage: newMockStorage(),
			},
		},
		{
			name: "with_provider_and_origin",
			config: Config{
				Storage:       newMockStorage(),
				OAuthProvider: NewGoogleOAuthProvider("client-id"),
				AppOrigin:     "http://localhost:5173",
			},
		},
		{
			name: "nil_storage",
			config: Config{
				Storage: nil,
			},
			wantErr: true,
			errMsg:  "storage is required",
		},
		{
			name: "provider_without_redirect",
			config: Config{
				Storage:       newMockStorage(),
				OAuthProvider: NewGoogleOAuthProvider("client-id"),
			},
			wantErr: true,
			errMsg:  "redirect URL or app origin is required",
		},
		{
			name: "provider_without_client_id",
			config: Config{
				Storage:       newMockStorage(),
				OAuthProvider: NewCustomOAuthProvider("", "https://idp.example.com/auth", "", nil),
				AppOrigin:     "http://localhost:5173",
			},
			wantErr: true,
			errMsg:  "ClientID is required",
		},
		{
			name: "provider_with_bad_auth_url",
			config: Config{
				Storage:       newMockStorage(),
				OAuthProvider: NewCustomOAuthProvider("client-id", "not a url", "", nil),
				AppOrigin:     "http://localhost:5173",
			},
			wantErr: true,
			errMsg:  "AuthURL must be a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewSessionManager(tt.config)

			if tt.wantErr {
				if err == nil {
					t.Errorf("NewSessionManager() expected error but got none")
					return
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("NewSessionManager() error = %v, expected to contain %v", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("NewSessionManager() unexpected error = %v", err)
			}
			if !m.IsLoading() {
				t.Error("IsLoading() = false before Initialize")
			}
			if m.IsAuthenticated() {
				t.Error("IsAuthenticated() = true before Initialize")
			}
		})
	}
}

func TestSessionManager_RedirectURL(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "derived_from_origin",
			config: Config{AppOrigin: "http://localhost:5173/"},
			want:   "http://localhost:5173/auth/callback",
		},
		{
			name:   "custom_callback_path",
			config: Config{AppOrigin: "https://club.example.com", CallbackPath: "login/done"},
			want:   "https://club.example.com/login/done",
		},
		{
			name:   "explicit_redirect_wins",
			config: Config{AppOrigin: "https://club.example.com", RedirectURL: "http://127.0.0.1:8765/cb"},
			want:   "http://127.0.0.1:8765/cb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Storage = newMockStorage()
			tt.config.OAuthProvider = NewGoogleOAuthProvider("client-id")

			m, err := NewSessionManager(tt.config)
			if err != nil {
				t.Fatalf("NewSessionManager() unexpected error = %v", err)
			}
			if got := m.RedirectURL(); got != tt.want {
				t.Errorf("RedirectURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestSessionManager_Initialize tests loading and reconciling stored sessions
func TestSessionManager_Initialize(t *testing.T) {
	now := time.Now()
	user := &User{ID: "user-1", DisplayName: "Mei Lin", Email: "mei@example.com"}

	tests := []struct {
		name     string
		stored   map[string]string
		wantAuth bool
		wantUser bool
		wantKeys []string
		goneKeys []string
		reason   string
	}{
		{
			name:     "empty_storage",
			stored:   map[string]string{},
			wantAuth: false,
		},
		{
			name: "valid_session",
			stored: map[string]string{
				KeyUser:  mustMarshalUser(t, user),
				KeyToken: tokenExpiringAt(t, now.Add(time.Hour)),
			},
			wantAuth: true,
			wantUser: true,
			wantKeys: []string{KeyUser, KeyToken},
		},
		{
			name: "expired_token_discards_session",
			stored: map[string]string{
				KeyUser:  mustMarshalUser(t, user),
				KeyToken: tokenExpiringAt(t, now.Add(-time.Minute)),
			},
			goneKeys: []string{KeyUser, KeyToken},
			reason:   ClearReasonExpired,
		},
		{
			name: "malformed_token_discards_session",
			stored: map[string]string{
				KeyUser:  mustMarshalUser(t, user),
				KeyToken: "not-a-token",
			},
			goneKeys: []string{KeyUser, KeyToken},
			reason:   ClearReasonCorrupt,
		},
		{
			name: "corrupt_user_dropped_token_kept",
			stored: map[string]string{
				KeyUser:  "{not json",
				KeyToken: tokenExpiringAt(t, now.Add(time.Hour)),
			},
			wantKeys: []string{KeyToken},
			goneKeys: []string{KeyUser},
			reason:   ClearReasonCorrupt,
		},
		{
			name: "user_without_id_dropped",
			stored: map[string]string{
				KeyUser:  `{"displayName":"Nobody"}`,
				KeyToken: tokenExpiringAt(t, now.Add(time.Hour)),
			},
			wantKeys: []string{KeyToken},
			goneKeys: []string{KeyUser},
			reason:   ClearReasonCorrupt,
		},
		{
			name: "user_without_token",
			stored: map[string]string{
				KeyUser: mustMarshalUser(t, user),
			},
			wantUser: true,
			wantKeys: []string{KeyUser},
		},
		{
			name: "token_without_expiry_kept",
			stored: map[string]string{
				KeyUser:  mustMarshalUser(t, user),
				KeyToken: mustCreateTestToken(t, map[string]any{"sub": "user-1"}),
			},
			wantAuth: true,
			wantUser: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStorage()
			for k, v := range tt.stored {
				store.values[k] = v
			}
			reg := prometheus.NewRegistry()

			m := mustCreateTestSessionManager(t, Config{Storage: store, MetricsRegisterer: reg})
			if err := m.Initialize(); err != nil {
				t.Fatalf("Initialize() unexpected error = %v", err)
			}

			if m.IsLoading() {
				t.Error("IsLoading() = true after Initialize")
			}
			if got := m.IsAuthenticated(); got != tt.wantAuth {
				t.Errorf("IsAuthenticated() = %v, want %v", got, tt.wantAuth)
			}
			if got := m.User() != nil; got != tt.wantUser {
				t.Errorf("User() != nil = %v, want %v", got, tt.wantUser)
			}
			for _, k := range tt.wantKeys {
				if !store.has(k) {
					t.Errorf("storage lost %q", k)
				}
			}
			for _, k := range tt.goneKeys {
				if store.has(k) {
					t.Errorf("storage still holds %q", k)
				}
			}
			if tt.reason != "" {
				if got := testutil.ToFloat64(m.metrics.Clears.WithLabelValues(tt.reason)); got != 1 {
					t.Errorf("clears{reason=%q} = %v, want 1", tt.reason, got)
				}
			}
		})
	}
}

func TestSessionManager_InitializeTwice(t *testing.T) {
	m := mustCreateTestSessionManager(t, Config{Storage: newMockStorage()})

	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize() unexpected error = %v", err)
	}
	if err := m.Initialize(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Initialize() error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestSessionManager_InitializeStorageFailure(t *testing.T) {
	store := newMockStorage()
	store.values[KeyUser] = mustMarshalUser(t, &User{ID: "user-1"})
	store.values[KeyToken] = tokenExpiringAt(t, time.Now().Add(time.Hour))
	store.getErr[KeyToken] = errors.New("disk on fire")

	m := mustCreateTestSessionManager(t, Config{Storage: store})
	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize() unexpected error = %v", err)
	}

	if m.IsAuthenticated() || m.User() != nil {
		t.Error("unreadable token must leave the session logged out")
	}
	if m.IsLoading() {
		t.Error("IsLoading() = true after Initialize")
	}
	if store.has(KeyUser) {
		t.Error("stored user kept after unreadable token")
	}
}

func TestSessionManager_InitializeRemoveFailure(t *testing.T) {
	store := newMockStorage()
	store.values[KeyToken] = "bogus"
	store.removeErr = errors.New("read-only")

	m := mustCreateTestSessionManager(t, Config{Storage: store})
	err := m.Initialize()
	if err == nil {
		t.Fatal("Initialize() expected error from failing removal")
	}
	if m.IsAuthenticated() || m.IsLoading() {
		t.Error("in-memory state must be settled even when storage fails")
	}
}

// TestSessionManager_CompleteLogin tests installing a fresh session
func TestSessionManager_CompleteLogin(t *testing.T) {
	store := newMockStorage()
	reg := prometheus.NewRegistry()
	m := mustCreateInitializedSessionManager(t, Config{Storage: store, MetricsRegisterer: reg})

	user := &User{ID: "user-1", DisplayName: "Mei Lin", PictureURL: "https://cdn.example.com/mei.png"}
	token := tokenExpiringAt(t, time.Now().Add(time.Hour))

	if err := m.CompleteLogin(user, token); err != nil {
		t.Fatalf("CompleteLogin() unexpected error = %v", err)
	}

	if !m.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = false after CompleteLogin")
	}
	if m.Token() != token {
		t.Error("Token() does not return the installed token")
	}
	if got := m.User(); got == nil || got.ID != "user-1" {
		t.Errorf("User() = %+v, want user-1", got)
	}

	if store.values[KeyToken] != token {
		t.Error("token not written to storage")
	}
	var persisted User
	if err := json.Unmarshal([]byte(store.values[KeyUser]), &persisted); err != nil {
		t.Fatalf("stored user is not JSON: %v", err)
	}
	if persisted != *user {
		t.Errorf("stored user = %+v, want %+v", persisted, *user)
	}

	if got := testutil.ToFloat64(m.metrics.Logins); got != 1 {
		t.Errorf("logins = %v, want 1", got)
	}

	// Mutating the caller's copy must not leak into the session.
	user.DisplayName = "Changed"
	if m.User().DisplayName != "Mei Lin" {
		t.Error("session shares the caller's user record")
	}
}

func TestSessionManager_CompleteLoginRejects(t *testing.T) {
	tests := []struct {
		name  string
		user  *User
		token func(t *testing.T) string
		want  error
	}{
		{
			name:  "nil_user",
			user:  nil,
			token: func(t *testing.T) string { return tokenExpiringAt(t, time.Now().Add(time.Hour)) },
			want:  ErrInvalidUser,
		},
		{
			name:  "user_without_id",
			user:  &User{DisplayName: "Anon"},
			token: func(t *testing.T) string { return tokenExpiringAt(t, time.Now().Add(time.Hour)) },
			want:  ErrInvalidUser,
		},
		{
			name:  "bad_email",
			user:  &User{ID: "u", Email: "not-an-email"},
			token: func(t *testing.T) string { return tokenExpiringAt(t, time.Now().Add(time.Hour)) },
			want:  ErrInvalidUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStorage()
			m := mustCreateInitializedSessionManager(t, Config{Storage: store})

			err := m.CompleteLogin(tt.user, tt.token(t))
			if !errors.Is(err, tt.want) {
				t.Errorf("CompleteLogin() error = %v, want %v", err, tt.want)
			}
			if m.IsAuthenticated() {
				t.Error("rejected login left the session authenticated")
			}
			if store.has(KeyUser) || store.has(KeyToken) {
				t.Error("rejected login wrote to storage")
			}
		})
	}
}

func TestSessionManager_CompleteLoginExpiredToken(t *testing.T) {
	store := newMockStorage()
	reg := prometheus.NewRegistry()
	m := mustCreateInitializedSessionManager(t, Config{Storage: store, MetricsRegisterer: reg})

	err := m.CompleteLogin(&User{ID: "user-1"}, tokenExpiringAt(t, time.Now().Add(-time.Minute)))
	if err != nil {
		t.Fatalf("CompleteLogin() unexpected error = %v", err)
	}

	if m.IsAuthenticated() || m.User() != nil || m.Token() != "" {
		t.Error("expired token must leave the session logged out")
	}
	if store.has(KeyUser) || store.has(KeyToken) {
		t.Error("expired token left session data in storage")
	}
	if got := testutil.ToFloat64(m.metrics.Logins); got != 0 {
		t.Errorf("logins = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.metrics.Clears.WithLabelValues(ClearReasonExpired)); got != 1 {
		t.Errorf("clears{expired} = %v, want 1", got)
	}
}

func TestSessionManager_Logout(t *testing.T) {
	store := newMockStorage()
	store.values[KeyOAuthState] = "pending"
	m := mustCreateInitializedSessionManager(t, Config{Storage: store})

	if err := m.CompleteLogin(&User{ID: "user-1"}, tokenExpiringAt(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("CompleteLogin() unexpected error = %v", err)
	}

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout() unexpected error = %v", err)
	}
	if m.IsAuthenticated() || m.User() != nil || m.Token() != "" {
		t.Error("Logout() left session state in memory")
	}
	if store.has(KeyUser) || store.has(KeyToken) {
		t.Error("Logout() left session data in storage")
	}
	if !store.has(KeyOAuthState) {
		t.Error("Logout() touched unrelated storage keys")
	}

	// Logging out twice is harmless.
	if err := m.Logout(); err != nil {
		t.Errorf("second Logout() unexpected error = %v", err)
	}
}

func TestSessionManager_SessionSurvivesRestart(t *testing.T) {
	store := newMockStorage()
	token := tokenExpiringAt(t, time.Now().Add(time.Hour))

	first := mustCreateInitializedSessionManager(t, Config{Storage: store})
	if err := first.CompleteLogin(&User{ID: "user-1", DisplayName: "Mei"}, token); err != nil {
		t.Fatalf("CompleteLogin() unexpected error = %v", err)
	}
	first.Close()

	second := mustCreateInitializedSessionManager(t, Config{Storage: store})
	if !second.IsAuthenticated() {
		t.Fatal("session lost across restart")
	}
	if second.Token() != token || second.User().DisplayName != "Mei" {
		t.Error("restored session differs from the stored one")
	}
}

// TestSessionManager_Unauthorized tests the 401 interceptor
func TestSessionManager_Unauthorized(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		loggedIn    bool
		wantCleared bool
	}{
		{
			name:        "401_with_session",
			status:      http.StatusUnauthorized,
			loggedIn:    true,
			wantCleared: true,
		},
		{
			name:     "403_with_session",
			status:   http.StatusForbidden,
			loggedIn: true,
		},
		{
			name:     "500_with_session",
			status:   http.StatusInternalServerError,
			loggedIn: true,
		},
		{
			name:     "200_with_session",
			status:   http.StatusOK,
			loggedIn: true,
		},
		{
			name:     "401_without_session",
			status:   http.StatusUnauthorized,
			loggedIn: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"message":"nope"}`))
			}))
			defer server.Close()

			store := newMockStorage()
			transport := NewTransport(nil)
			reg := prometheus.NewRegistry()
			m := mustCreateInitializedSessionManager(t, Config{
				Storage:           store,
				Transport:         transport,
				MetricsRegisterer: reg,
			})
			if tt.loggedIn {
				if err := m.CompleteLogin(&User{ID: "user-1"}, tokenExpiringAt(t, time.Now().Add(time.Hour))); err != nil {
					t.Fatalf("CompleteLogin() unexpected error = %v", err)
				}
			}

			resp, err := transport.Client().Get(server.URL)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("response status = %d, want %d", resp.StatusCode, tt.status)
			}

			cleared := !m.IsAuthenticated()
			if tt.loggedIn && cleared != tt.wantCleared {
				t.Errorf("session cleared = %v, want %v", cleared, tt.wantCleared)
			}
			if tt.wantCleared && (store.has(KeyUser) || store.has(KeyToken)) {
				t.Error("401 left session data in storage")
			}

			wantClears := 0.0
			if tt.wantCleared {
				wantClears = 1
			}
			if got := testutil.ToFloat64(m.metrics.Clears.WithLabelValues(ClearReasonUnauthorized)); got != wantClears {
				t.Errorf("clears{unauthorized} = %v, want %v", got, wantClears)
			}
		})
	}
}

func TestSessionManager_UnauthorizedWithUnreadableToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := newMockStorage()
	transport := NewTransport(nil)
	reg := prometheus.NewRegistry()
	m := mustCreateInitializedSessionManager(t, Config{
		Storage:           store,
		Transport:         transport,
		MetricsRegisterer: reg,
	})
	if err := m.CompleteLogin(&User{ID: "user-1"}, tokenExpiringAt(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("CompleteLogin() unexpected error = %v", err)
	}

	store.mu.Lock()
	store.getErr[KeyToken] = errors.New("failed to unseal stored value")
	store.mu.Unlock()

	resp, err := transport.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if m.IsAuthenticated() || m.Token() != "" {
		t.Error("401 with an unreadable token slot left the session in memory")
	}
	if store.has(KeyUser) || store.has(KeyToken) {
		t.Error("401 with an unreadable token slot left session data in storage")
	}
	if got := testutil.ToFloat64(m.metrics.Clears.WithLabelValues(ClearReasonUnauthorized)); got != 1 {
		t.Errorf("clears{unauthorized} = %v, want 1", got)
	}
}

func TestSessionManager_CloseStopsInterceptor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	transport := NewTransport(nil)
	m := mustCreateInitializedSessionManager(t, Config{Storage: newMockStorage(), Transport: transport})
	if err := m.CompleteLogin(&User{ID: "user-1"}, tokenExpiringAt(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("CompleteLogin() unexpected error = %v", err)
	}

	m.Close()
	m.Close()

	resp, err := transport.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if !m.IsAuthenticated() {
		t.Error("closed manager still reacted to a 401")
	}
}

// A 401 for a request sent before a fresh login can land after the login
// completes. The interceptor only sees what storage holds at that moment,
// so the new session is cleared. This pins down that behavior.
func TestSessionManager_StaleUnauthorizedClearsFreshLogin(t *testing.T) {
	sent := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(sent)
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	transport := NewTransport(nil)
	m := mustCreateInitializedSessionManager(t, Config{Storage: newMockStorage(), Transport: transport})

	done := make(chan error, 1)
	go func() {
		resp, err := transport.Client().Get(server.URL)
		if err == nil {
			resp.Body.Close()
		}
		done <- err
	}()

	<-sent
	if err := m.CompleteLogin(&User{ID: "user-1"}, tokenExpiringAt(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("CompleteLogin() unexpected error = %v", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if m.IsAuthenticated() {
		t.Error("stale 401 was expected to clear the fresh session")
	}
}

func TestSessionManager_ConcurrentAccess(t *testing.T) {
	m := mustCreateInitializedSessionManager(t, Config{Storage: newMockStorage()})
	token := tokenExpiringAt(t, time.Now().Add(time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := m.CompleteLogin(&User{ID: "user-1"}, token); err != nil {
				t.Errorf("CompleteLogin() unexpected error = %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_ = m.IsAuthenticated()
			_ = m.User()
			_ = m.Token()
			if err := m.Logout(); err != nil {
				t.Errorf("Logout() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	// Either outcome is fine; the pair must be consistent.
	if (m.User() != nil) != (m.Token() != "") {
		t.Error("user and token out of sync after concurrent access")
	}
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics() unexpected error = %v", err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second NewMetrics() unexpected error = %v", err)
	}

	second.Logins.Inc()
	if got := testutil.ToFloat64(first.Logins); got != 1 {
		t.Errorf("shared logins counter = %v, want 1", got)
	}
}

// Mock storage for testing
type mockStorage struct {
	mu        sync.Mutex
	values    map[string]string
	getErr    map[string]error
	setErr    error
	removeErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		values: make(map[string]string),
		getErr: make(map[string]error),
	}
}

func (m *mockStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.getErr[key]; err != nil {
		return "", false, err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.values, key)
	return nil
}

func (m *mockStorage) Close() error {
	return nil
}

func (m *mockStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

func mustMarshalUser(t *testing.T, u *User) string {
	t.Helper()
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("failed to marshal user: %v", err)
	}
	return string(data)
}

func mustCreateTestSessionManager(t *testing.T, cfg Config) *SessionManager {
	t.Helper()

	m, err := NewSessionManager(cfg)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func mustCreateInitializedSessionManager(t *testing.T, cfg Config) *SessionManager {
	t.Helper()

	m := mustCreateTestSessionManager(t, cfg)
	if err := m.Initialize(); err != nil {
		t.Fatalf("failed to initialize session manager: %v", err)
	}
	return m
}
