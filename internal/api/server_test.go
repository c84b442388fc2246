package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hvz-game/server/internal/auth"
	"github.com/hvz-game/server/internal/metrics"
	"github.com/hvz-game/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (http.Handler, *auth.TokenIssuer) {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour, "test")
	require.NoError(t, err)
	r := NewRouter(Config{
		Log:     zap.NewNop(),
		Auth:    auth.NewMemoryProvider(),
		Tokens:  tokens,
		Metrics: metrics.New("test"),
		Status: func() *world.Summary {
			return &world.Summary{Tick: 42, Phase: "running", TimeLeft: 90, Humans: 3, Zombies: 1}
		},
	})
	return r, tokens
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, auth.Result) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	var res auth.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return w, res
}

func TestRegisterThenLogin(t *testing.T) {
	h, tokens := newRouter(t)

	w, res := post(t, h, "/api/register", `{"username":"alice","password":"secret","displayName":"Alice"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, res.Success)
	assert.Equal(t, "Alice", res.Name)

	w, res = post(t, h, "/api/register", `{"username":"alice","password":"other"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "username already taken", res.Message)

	w, res = post(t, h, "/api/login", `{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	claims, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	w, res = post(t, h, "/api/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, res.Success)
}

func TestRejectsMalformedBody(t *testing.T) {
	h, _ := newRouter(t)
	w, res := post(t, h, "/api/login", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, res.Success)
}

func TestHealthStatusAndMetrics(t *testing.T) {
	h, _ := newRouter(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var sum world.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, uint64(42), sum.Tick)
	assert.Equal(t, 3, sum.Humans)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "test_http_request_duration_seconds"))
}
