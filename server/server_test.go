package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfsync/go-shelf-sync/internal/config"
	"github.com/shelfsync/go-shelf-sync/server"
)

type testConfig struct {
	tokenURL   string
	apiBaseURL string
}

func (c testConfig) GetPort() string    { return ":0" }
func (c testConfig) GetAppName() string { return "Shelf Sync" }
func (c testConfig) GetEnv() string     { return "TEST" }
func (c testConfig) GetBaseURL() string { return "http://localhost:8000" }

func (c testConfig) GetAllowedOrigins() config.AllowedOrigins {
	return config.AllowedOrigins{"*": struct{}{}}
}
func (c testConfig) GetAllowedMethods() string { return "GET, POST, PUT, PATCH, DELETE" }
func (c testConfig) GetAllowedHeaders() string { return "Content-Type, Authorization" }

func (c testConfig) GetClientID() string     { return "client-1" }
func (c testConfig) GetClientSecret() string { return "secret-1" }
func (c testConfig) GetRedirectURI() string  { return "http://localhost:8000/auth/callback" }
func (c testConfig) GetScope() string        { return "vendor.product.read vendor.product.write" }
func (c testConfig) GetAuthURL() string      { return "https://platform.example/accounts/sso" }
func (c testConfig) GetTokenURL() string     { return c.tokenURL }
func (c testConfig) GetAPIBaseURL() string   { return c.apiBaseURL }

func (c testConfig) GetBulkWorkers() int              { return 2 }
func (c testConfig) GetProductTimeout() time.Duration { return time.Second }
func (c testConfig) GetStateTTL() time.Duration       { return 15 * time.Minute }

// upstream fakes the provider's token endpoint and the core API together.
type upstream struct {
	mu      sync.Mutex
	patches map[string][]string // product path -> request bodies

	profileBody string
	shelfBody   string

	tokens *httptest.Server
	api    *httptest.Server
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()

	u := &upstream{
		patches:     map[string][]string{},
		profileBody: `{"id": 100, "name": "seller", "vendor": {"id": 555, "title": "pottery"}}`,
		shelfBody:   `{"data": [{"id": 1, "title": "mug"}, {"id": 2, "title": "bowl"}]}`,
	}

	u.tokens = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"access_token": "token-e2e", "token_type": "Bearer"}`))
	}))
	t.Cleanup(u.tokens.Close)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v3/users/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-e2e", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(u.profileBody))
	})
	// ServeMux rejects "GET /api_v2/shelve/list/{owner_id}" and
	// "GET /api_v2/shelve/{shelf_id}/products" as ambiguous patterns, so
	// the two routes are dispatched manually under one registration.
	mux.HandleFunc("GET /api_v2/shelve/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api_v2/shelve/list/"):
			_, _ = w.Write([]byte(`[{"id": 10, "title": "summer shelf"}]`))
		case strings.HasSuffix(r.URL.Path, "/products"):
			_, _ = w.Write([]byte(u.shelfBody))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("PATCH /v4/products/{product_id}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-e2e", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.patches[r.URL.Path] = append(u.patches[r.URL.Path], string(body))
		u.mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	})
	u.api = httptest.NewServer(mux)
	t.Cleanup(u.api.Close)

	return u
}

func newTestServer(t *testing.T) (*server.Server, *upstream) {
	t.Helper()

	u := newUpstream(t)
	return server.New(testConfig{tokenURL: u.tokens.URL, apiBaseURL: u.api.URL}), u
}

// login runs the full authorization round trip and returns the session cookie.
func login(t *testing.T, srv *server.Server) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	authorize, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := authorize.Query().Get("state")
	require.NotEmpty(t, state)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-e2e&state="+url.QueryEscape(state), nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "shelf_session_id" {
			return cookie
		}
	}
	t.Fatal("callback response did not set a session cookie")
	return nil
}

func doJSON(t *testing.T, srv *server.Server, req *http.Request, out any) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestLoginCallbackAuthStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	cookie := login(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(cookie)
	var status map[string]bool
	rec := doJSON(t, srv, req, &status)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, status["authenticated"])
}

func TestAuthStatusWithoutSession(t *testing.T) {
	srv, _ := newTestServer(t)

	var status map[string]bool
	rec := doJSON(t, srv, httptest.NewRequest(http.MethodGet, "/api/auth/status", nil), &status)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, status["authenticated"])
}

func TestProtectedRouteRejectsAnonymous(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	rec := doJSON(t, srv, httptest.NewRequest(http.MethodGet, "/api/user/me", nil), &body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Not authenticated", body["detail"])
}

func TestCallbackRejectsForgedState(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	authorize, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	sessionID, _, _ := strings.Cut(authorize.Query().Get("state"), ":")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-e2e&state="+sessionID+"%3Aforged", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	var health map[string]any
	rec := doJSON(t, srv, httptest.NewRequest(http.MethodGet, "/api/health", nil), &health)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", health["status"])
}

func TestShelvesResolvesVendor(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := login(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/shelves", nil)
	req.AddCookie(cookie)
	rec := doJSON(t, srv, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-Resolution-Degraded"))
	require.Contains(t, rec.Body.String(), "summer shelf")
}

func TestShelvesDegradedFallback(t *testing.T) {
	srv, u := newTestServer(t)
	u.profileBody = `{"id": 100, "name": "seller"}`
	cookie := login(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/shelves", nil)
	req.AddCookie(cookie)
	rec := doJSON(t, srv, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-id-fallback", rec.Header().Get("X-Resolution-Degraded"))
}

func TestShelfProductsNormalized(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := login(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/shelves/10/products", nil)
	req.AddCookie(cookie)
	rec := doJSON(t, srv, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	// The data wrapper is stripped; the response is a bare array
	require.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "["))
}

func TestUpdateDescriptionsEndToEnd(t *testing.T) {
	srv, u := newTestServer(t)
	cookie := login(t, srv)

	form := url.Values{"description": {"fresh description"}}
	req := httptest.NewRequest(http.MethodPost, "/api/shelves/10/update-descriptions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)

	var result struct {
		Success      bool `json:"success"`
		UpdatedCount int  `json:"updated_count"`
		FailedCount  int  `json:"failed_count"`
	}
	rec := doJSON(t, srv, req, &result)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, result.Success)
	require.Equal(t, 2, result.UpdatedCount)
	require.Zero(t, result.FailedCount)

	u.mu.Lock()
	defer u.mu.Unlock()
	require.Len(t, u.patches, 2)
	for _, bodies := range u.patches {
		require.Len(t, bodies, 1)
		require.JSONEq(t, `{"description": "fresh description"}`, bodies[0])
	}
}

func TestUpdateDescriptionsRequiresDescription(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := login(t, srv)

	req := httptest.NewRequest(http.MethodPost, "/api/shelves/10/update-descriptions", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)

	var body map[string]string
	rec := doJSON(t, srv, req, &body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "description is required", body["detail"])
}
