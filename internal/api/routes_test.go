package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedeck/filedeck/internal/config"
	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/testutil"
)

func newTestServer(t *testing.T, auth *TokenIssuer) (*echo.Echo, *testutil.MockStorage) {
	t.Helper()
	store := testutil.NewMockStorage()
	e := echo.New()
	cfg := config.DefaultConfig().Server
	cfg.EnableRequestLogging = false
	SetupMiddleware(e, &cfg, false)

	hub := NewHub(logging.Discard())
	t.Cleanup(hub.Close)
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Store:       store,
		Hub:         hub,
		Auth:        auth,
		AllowDelete: true,
		Version:     "test",
		Logger:      logging.Discard(),
	}))
	return e, store
}

func TestRegisterRoutes(t *testing.T) {
	e, store := newTestServer(t, nil)
	stored, err := store.SaveBytes("a.txt", "text/plain", []byte("a"))
	require.NoError(t, err)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/files", http.StatusOK},
		{http.MethodGet, "/api/files/download/" + stored.FileName, http.StatusOK},
		{http.MethodGet, "/api/files/download/missing.txt", http.StatusNotFound},
		{http.MethodDelete, "/api/files/" + stored.FileName, http.StatusNoContent},
		{http.MethodGet, "/api/nothing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRegisterRoutes_AuthGuardsFiles(t *testing.T) {
	issuer, err := NewTokenIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	e, _ := newTestServer(t, issuer)

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays public
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test","files":0}`, rec.Body.String())

	token, _, err := issuer.GenerateToken("tester")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	e, store := newTestServer(t, nil)
	_, err := store.SaveBytes("a.txt", "text/plain", []byte("a"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test","files":1}`, rec.Body.String())

	store.FailWith(errors.New("index unavailable"))
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","version":"test","files":0,"error":"index unavailable"}`, rec.Body.String())
}
