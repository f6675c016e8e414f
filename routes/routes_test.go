package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oba/server/app"
	"github.com/oba/server/config"
	"github.com/oba/server/models"
	"github.com/oba/server/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Environment: "test",
		StoreDriver: config.StoreDriverMemory,
		Server: config.ServerConfig{
			RequestTimeout: 10 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		JWT: config.JWTConfig{
			Secret:          "routes-secret",
			Issuer:          "oba-test",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		Password: config.PasswordConfig{BcryptCost: 4},
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	ts := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(func() {
		ts.Close()
		_ = deps.Close(context.Background())
	})
	return ts
}

func do(t *testing.T, method, url, body, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodePair(t *testing.T, resp *http.Response) token.Pair {
	t.Helper()
	var body struct {
		Data token.Pair `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Data
}

func TestPublicEndpoints(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", http.StatusOK},
		{"readiness with memory store", http.MethodGet, "/readyz", http.StatusOK},
		{"status", http.MethodGet, "/api/status", http.StatusOK},
		{"login without body reaches handler", http.MethodPost, "/api/auth/login", http.StatusBadRequest},
		{"unconfigured provider", http.MethodGet, "/api/auth/oauth2/google", http.StatusNotFound},
		{"unsupported provider", http.MethodGet, "/api/auth/oauth2/github", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, ts.URL+tt.path, "", "")
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}
}

func TestProtectedEndpoints(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"me", http.MethodGet, "/api/users/me"},
		{"logout", http.MethodPost, "/api/users/logout"},
		{"delete account", http.MethodDelete, "/api/users/me"},
		{"unknown path", http.MethodGet, "/api/nonexistent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, ts.URL+tt.path, "", "")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			resp = do(t, tt.method, ts.URL+tt.path, "", "not-a-jwt")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/auth/signup", `{"email":"a@x.com","password":"P@ss1"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/auth/signup", `{"email":"a@x.com","password":"other"}`, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/auth/login", `{"email":"a@x.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/auth/login", `{"email":"a@x.com","password":"P@ss1"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decodePair(t, resp)

	resp = do(t, http.MethodGet, ts.URL+"/api/users/me", "", first.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/users/me", "", first.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "refresh token must not pass the gate")

	resp = do(t, http.MethodPost, ts.URL+"/api/auth/reissue", `{"refresh_token":"`+first.RefreshToken+`"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decodePair(t, resp)

	resp = do(t, http.MethodPost, ts.URL+"/api/auth/reissue", `{"refresh_token":"`+first.RefreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/users/logout", "", second.AccessToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/auth/reissue", `{"refresh_token":"`+second.RefreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodDelete, ts.URL+"/api/users/me", "", second.AccessToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/users/me", "", second.AccessToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/auth/signup", `{"email":"a@x.com","password":"P@ss1"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = do(t, http.MethodPost, ts.URL+"/api/auth/login", `{"email":"a@x.com","password":"P@ss1"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pair := decodePair(t, resp)

	resp = do(t, http.MethodGet, ts.URL+"/api/admin/users/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/admin/users/"+uuid.NewString(), "", pair.AccessToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminLookup(t *testing.T) {
	cfg := &config.Config{
		Environment: "test",
		StoreDriver: config.StoreDriverMemory,
		JWT: config.JWTConfig{
			Secret:          "routes-secret",
			Issuer:          "oba-test",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		Password: config.PasswordConfig{BcryptCost: 4},
	}
	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	ts := httptest.NewServer(SetupRoutes(deps))
	defer ts.Close()

	target := models.NewLocalUser("t@x.com", "digest", "target")
	require.NoError(t, deps.Users.Create(context.Background(), target))

	adminPair, err := deps.Tokens.IssuePair(uuid.NewString(), "root@x.com", string(models.RoleAdmin))
	require.NoError(t, err)

	resp := do(t, http.MethodGet, ts.URL+"/api/admin/users/"+target.ID.String(), "", adminPair.AccessToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/admin/users/"+uuid.NewString(), "", adminPair.AccessToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/users/me", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/auth/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
