package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// apiCheckTimeout bounds the Kubernetes API probe done by /readyz.
const apiCheckTimeout = 3 * time.Second

// HealthChecker provides health check endpoints for Kubernetes probes.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a HealthChecker that starts out ready.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
}

// DetailedHealthResponse adds runtime details to the health response.
type DetailedHealthResponse struct {
	Status          string                      `json:"status"`
	Mode            string                      `json:"mode"`
	Version         string                      `json:"version,omitempty"`
	Uptime          string                      `json:"uptime"`
	Kubernetes      *KubernetesHealthStatus     `json:"kubernetes,omitempty"`
	Instrumentation *InstrumentationHealthCheck `json:"instrumentation,omitempty"`
}

// KubernetesHealthStatus describes the API server connection.
type KubernetesHealthStatus struct {
	Connected     bool   `json:"connected"`
	ServerVersion string `json:"server_version,omitempty"`
	Error         string `json:"error,omitempty"`
}

// InstrumentationHealthCheck provides health information about instrumentation.
type InstrumentationHealthCheck struct {
	Enabled         bool   `json:"enabled"`
	MetricsExporter string `json:"metrics_exporter,omitempty"`
	TracingExporter string `json:"tracing_exporter,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// unavailable returns why the server should not receive traffic, or "".
func (h *HealthChecker) unavailable() string {
	switch {
	case !h.ready.Load():
		return "not ready"
	case h.serverContext != nil && h.serverContext.IsShutdown():
		return "shutting down"
	}
	return ""
}

func (h *HealthChecker) version() string {
	if h.serverContext == nil || h.serverContext.Config() == nil {
		return ""
	}
	return h.serverContext.Config().Version
}

// LivenessHandler serves /healthz. It answers ok while the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: h.version()})
	})
}

// ReadinessHandler serves /readyz. The server is ready when it is marked
// ready, not shutting down and the Kubernetes API answers a version request.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"ready": "ok", "shutdown": "ok"}
		ok := true
		fail := func(name, reason string) {
			checks[name] = reason
			ok = false
		}

		if !h.ready.Load() {
			fail("ready", "not ready")
		}
		if h.serverContext != nil {
			if h.serverContext.IsShutdown() {
				fail("shutdown", "shutting down")
			}
			if k := h.kubernetesStatus(r.Context()); k != nil {
				if k.Connected {
					checks["kubernetes"] = "ok"
				} else {
					fail("kubernetes", k.Error)
				}
			}
			if p := h.serverContext.InstrumentationProvider(); p != nil {
				checks["instrumentation"] = "disabled"
				if p.Enabled() {
					checks["instrumentation"] = "ok"
				}
			}
		}

		if ok {
			writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "not ready", Checks: checks})
	})
}

// DetailedHealthHandler serves /healthz/detailed.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := DetailedHealthResponse{
			Status:  "ok",
			Mode:    h.mode(),
			Version: h.version(),
			Uptime:  time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if h.serverContext != nil {
			resp.Kubernetes = h.kubernetesStatus(r.Context())
			resp.Instrumentation = h.instrumentationStatus()
		}

		code := http.StatusOK
		if reason := h.unavailable(); reason != "" {
			resp.Status = reason
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	})
}

// RegisterHealthEndpoints registers the probe endpoints on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func (h *HealthChecker) mode() string {
	switch {
	case h.serverContext == nil:
		return "unknown"
	case h.serverContext.InClusterMode():
		return "in-cluster"
	default:
		return "local"
	}
}

// kubernetesStatus probes the API server of the default context. It returns
// nil when no client is configured.
func (h *HealthChecker) kubernetesStatus(ctx context.Context) *KubernetesHealthStatus {
	client := h.serverContext.K8sClient()
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, apiCheckTimeout)
	defer cancel()

	info, err := client.ServerVersion(ctx, h.serverContext.KubeContext(""))
	if err != nil {
		return &KubernetesHealthStatus{Error: err.Error()}
	}
	status := &KubernetesHealthStatus{Connected: true}
	if info != nil {
		status.ServerVersion = info.GitVersion
	}
	return status
}

func (h *HealthChecker) instrumentationStatus() *InstrumentationHealthCheck {
	p := h.serverContext.InstrumentationProvider()
	if p == nil || !p.Enabled() {
		return &InstrumentationHealthCheck{}
	}
	cfg := p.Config()
	return &InstrumentationHealthCheck{
		Enabled:         true,
		MetricsExporter: cfg.MetricsExporter,
		TracingExporter: cfg.TracingExporter,
	}
}
