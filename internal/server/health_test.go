package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHealthChecker(t *testing.T) {
	h := NewHealthChecker(&ServerContext{config: NewDefaultConfig()})

	require.NotNil(t, h)
	assert.True(t, h.IsReady(), "HealthChecker should start ready")
	assert.False(t, h.startTime.IsZero())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(&ServerContext{config: &Config{Version: "1.2.3"}})

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T) *HealthChecker
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name: "ready with reachable API",
			setup: func(t *testing.T) *HealthChecker {
				return NewHealthChecker(newTestServerContext(t, newStubClient()))
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"ready": "ok", "shutdown": "ok", "kubernetes": "ok"},
		},
		{
			name: "not ready",
			setup: func(t *testing.T) *HealthChecker {
				h := NewHealthChecker(newTestServerContext(t, newStubClient()))
				h.SetReady(false)
				return h
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": "not ready"},
		},
		{
			name: "shutting down",
			setup: func(t *testing.T) *HealthChecker {
				sc := newTestServerContext(t, newStubClient())
				_ = sc.Shutdown()
				return NewHealthChecker(sc)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"shutdown": "shutting down"},
		},
		{
			name: "API unreachable",
			setup: func(t *testing.T) *HealthChecker {
				client := newStubClient()
				client.versionErr = errors.New("connection refused")
				return NewHealthChecker(newTestServerContext(t, client))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"kubernetes": "connection refused"},
		},
		{
			name: "instrumentation reported",
			setup: func(t *testing.T) *HealthChecker {
				return NewHealthChecker(newTestServerContext(t, newStubClient(),
					WithInstrumentationProvider(createTestProvider(t))))
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"instrumentation": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.setup(t)
			rec := httptest.NewRecorder()
			h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			for k, v := range tt.wantChecks {
				assert.Equal(t, v, resp.Checks[k], "check %s", k)
			}
		})
	}
}

func TestDetailedHealthHandler(t *testing.T) {
	t.Run("local mode", func(t *testing.T) {
		h := NewHealthChecker(newTestServerContext(t, newStubClient(), WithVersion("2.0.0")))
		rec := httptest.NewRecorder()
		h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp DetailedHealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "local", resp.Mode)
		assert.Equal(t, "2.0.0", resp.Version)
		require.NotNil(t, resp.Kubernetes)
		assert.True(t, resp.Kubernetes.Connected)
		assert.Equal(t, "v1.31.0", resp.Kubernetes.ServerVersion)
		require.NotNil(t, resp.Instrumentation)
		assert.False(t, resp.Instrumentation.Enabled)
	})

	t.Run("in-cluster mode with instrumentation", func(t *testing.T) {
		h := NewHealthChecker(newTestServerContext(t, newStubClient(),
			WithInClusterMode(true),
			WithInstrumentationProvider(createTestProvider(t))))
		rec := httptest.NewRecorder()
		h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

		var resp DetailedHealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "in-cluster", resp.Mode)
		require.NotNil(t, resp.Instrumentation)
		assert.True(t, resp.Instrumentation.Enabled)
		assert.Equal(t, "prometheus", resp.Instrumentation.MetricsExporter)
	})

	t.Run("not ready", func(t *testing.T) {
		h := NewHealthChecker(newTestServerContext(t, newStubClient()))
		h.SetReady(false)
		rec := httptest.NewRecorder()
		h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("nil server context", func(t *testing.T) {
		h := NewHealthChecker(nil)
		rec := httptest.NewRecorder()
		h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

		var resp DetailedHealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "unknown", resp.Mode)
		assert.Nil(t, resp.Kubernetes)
	})
}

func TestRegisterHealthEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthChecker(newTestServerContext(t, newStubClient())).RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
