package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *HealthChecker, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil, "1.0.0")
	h.SetReady(false)

	rec, body := serve(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code, "liveness ignores readiness")
	assert.Equal(t, "ok", body["status"])
}

func TestHealthChecker_Readiness(t *testing.T) {
	sc := newTestServerContext(t, true)
	h := NewHealthChecker(sc, "1.0.0")

	rec, body := serve(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	h.SetReady(false)
	rec, body = serve(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body["checks"].(map[string]any)["ready"])

	h.SetReady(true)
	require.NoError(t, sc.Shutdown())
	rec, body = serve(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "shutting down", body["checks"].(map[string]any)["shutdown"])
}

func TestHealthChecker_ReadinessProbe(t *testing.T) {
	h := NewHealthChecker(nil, "")

	var calls int
	probeErr := errors.New("calendar unreachable")
	h.SetProbe(func(ctx context.Context) error {
		calls++
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return probeErr
	})

	rec, body := serve(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "failing", body["checks"].(map[string]any)["calendar"])

	probeErr = nil
	rec, body = serve(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["checks"].(map[string]any)["calendar"])
	assert.Equal(t, 2, calls)
}

func TestHealthChecker_Detailed(t *testing.T) {
	sc := newTestServerContext(t, true)
	h := NewHealthChecker(sc, "1.2.3")

	rec, body := serve(t, h, "/healthz/detailed")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, "team", body["calendar_id"])
	assert.Equal(t, "memory", body["backend"])
	assert.Equal(t, true, body["read_only"])
	assert.NotEmpty(t, body["uptime"])

	h.SetReady(false)
	rec, body = serve(t, h, "/healthz/detailed")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body["status"])
}
