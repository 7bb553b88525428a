package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/config"
	"github.com/sakif/playlister/internal/observability"
	"github.com/sakif/playlister/internal/repository/instrumented"
	"github.com/sakif/playlister/internal/repository/repotest"
)

func testConfig() config.Config {
	return config.Config{
		Env:        "development",
		Port:       0,
		JWTSecret:  "test-secret-at-least-16-chars!!",
		CORSOrigin: "http://localhost:3000",
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *repotest.MemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	store := repotest.NewMemoryStore()

	s, err := New(testConfig(), instrumented.Wrap(store, prom), reg, prom, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "short"
	reg := prometheus.NewRegistry()

	_, err := New(cfg, repotest.NewMemoryStore(), reg, observability.NewProm(reg), slog.Default())
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","backend":"memory"}`, string(body))
}

func TestRegisterThenUseStore(t *testing.T) {
	ts, _ := newTestServer(t)
	client := ts.Client()

	resp, err := client.Post(ts.URL+"/auth/register", "application/json", strings.NewReader(
		`{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","password":"password123","passwordVerify":"password123"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			token = c
		}
	}
	require.NotNil(t, token)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/store/playlist", strings.NewReader(`{"name":"Mix"}`))
	req.AddCookie(token)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/store/playlists")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "no cookie, no access")
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = http.Post(ts.URL+"/auth/login", "application/json",
		strings.NewReader(`{"email":"nobody@example.com","password":"password123"}`))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	assert.Contains(t, text, `playlister_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, text, `playlister_store_operation_duration_seconds_count{backend="memory",op="GetUserByEmail",status="absent"} 1`)
}

func TestPreflight(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/store/playlist", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "POST", resp.Header.Get("Access-Control-Allow-Methods"))
}
