package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-podfs/internal/server"
	contexttools "github.com/giantswarm/mcp-podfs/internal/tools/context"
	podfstools "github.com/giantswarm/mcp-podfs/internal/tools/podfs"
	"github.com/giantswarm/mcp-podfs/internal/tools/testdata"
)

func TestServeCmdProperties(t *testing.T) {
	cmd := newServeCmd()

	assert.Equal(t, "serve", cmd.Use)
	assert.Equal(t, "Start the MCP container filesystem server", cmd.Short)
	assert.True(t, strings.Contains(cmd.Long, "Model Context Protocol"))
	assert.True(t, strings.Contains(cmd.Long, "stdio"))
	assert.True(t, strings.Contains(cmd.Long, "sse"))
	assert.True(t, strings.Contains(cmd.Long, "streamable-http"))
}

func TestServeCmdFlagDefaults(t *testing.T) {
	cmd := newServeCmd()

	tests := []struct {
		flagName string
		expected string
	}{
		{"transport", "stdio"},
		{"http-addr", ":8080"},
		{"sse-endpoint", "/sse"},
		{"message-endpoint", "/message"},
		{"http-endpoint", "/mcp"},
		{"namespace", "default"},
		{"container-os", ""},
		{"cli", "kubectl"},
		{"qps-limit", "20"},
		{"burst-limit", "30"},
		{"timeout", "30s"},
		{"in-cluster", "false"},
		{"max-items", "0"},
		{"max-response-bytes", "0"},
		{"metrics", "true"},
		{"metrics-addr", server.DefaultMetricsAddr},
		{"enable-hsts", "false"},
		{"allowed-origins", ""},
		{"max-request-bytes", "1048576"},
		{"debug", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.flagName)
			require.NotNil(t, flag, "flag %s should exist", tt.flagName)
			assert.Equal(t, tt.expected, flag.DefValue)
		})
	}
}

func validServeConfig() ServeConfig {
	return ServeConfig{
		Transport:       transportStdio,
		HTTPAddr:        ":8080",
		SSEEndpoint:     "/sse",
		MessageEndpoint: "/message",
		HTTPEndpoint:    "/mcp",
		Cluster: ClusterFlags{
			Namespace:  "default",
			Platform:   "linux",
			QPSLimit:   20,
			BurstLimit: 30,
		},
		Metrics: MetricsServeConfig{Enabled: true, Addr: ":9090"},
	}
}

func TestServeConfigValidate(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(*ServeConfig)
		errorContains string
	}{
		{name: "stdio", modify: func(*ServeConfig) {}},
		{name: "sse", modify: func(c *ServeConfig) { c.Transport = transportSSE }},
		{name: "streamable-http", modify: func(c *ServeConfig) { c.Transport = transportStreamableHTTP }},
		{
			name:          "unknown transport",
			modify:        func(c *ServeConfig) { c.Transport = "websocket" },
			errorContains: "unsupported transport type: websocket",
		},
		{
			name: "sse endpoints must differ",
			modify: func(c *ServeConfig) {
				c.Transport = transportSSE
				c.MessageEndpoint = "/sse"
			},
			errorContains: "must differ",
		},
		{
			name: "endpoint without leading slash",
			modify: func(c *ServeConfig) {
				c.Transport = transportStreamableHTTP
				c.HTTPEndpoint = "mcp"
			},
			errorContains: "--http-endpoint must start with /",
		},
		{
			name: "http transport without address",
			modify: func(c *ServeConfig) {
				c.Transport = transportStreamableHTTP
				c.HTTPAddr = ""
			},
			errorContains: "--http-addr is required",
		},
		{
			name:          "metrics on the MCP address",
			modify:        func(c *ServeConfig) { c.Metrics.Addr = ":8080" },
			errorContains: "--metrics-addr must differ",
		},
		{
			name:          "negative output limit",
			modify:        func(c *ServeConfig) { c.MaxItems = -1 },
			errorContains: "must not be negative",
		},
		{
			name:          "unknown platform",
			modify:        func(c *ServeConfig) { c.Cluster.Platform = "plan9" },
			errorContains: "invalid --container-os",
		},
		{
			name: "kubeconfig with in-cluster",
			modify: func(c *ServeConfig) {
				c.Cluster.InCluster = true
				c.Cluster.KubeconfigPath = "/tmp/config"
			},
			errorContains: "cannot be combined",
		},
		{
			name:          "zero qps",
			modify:        func(c *ServeConfig) { c.Cluster.QPSLimit = 0 },
			errorContains: "--qps-limit must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validServeConfig()
			tt.modify(&config)

			err := config.Validate()
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestServeConfigOutputConfig(t *testing.T) {
	config := validServeConfig()
	out := config.outputConfig()
	assert.Equal(t, 500, out.MaxItems)
	assert.Equal(t, 512*1024, out.MaxResponseBytes)

	config.MaxItems = 20
	assert.Equal(t, 20, config.outputConfig().MaxItems)
}

func TestLoadServeEnv(t *testing.T) {
	t.Setenv("MAX_ITEMS", "42")
	t.Setenv("MAX_RESPONSE_BYTES", "not-a-number")
	t.Setenv("ENABLE_HSTS", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://example.com")
	t.Setenv("PODFS_CONTAINER_OS", "windows")
	t.Setenv("RESTRICTED_NAMESPACES", "kube-system, ,secrets")

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--max-response-bytes=100"}))

	var config ServeConfig
	loadServeEnv(cmd, &config, slog.New(slog.DiscardHandler))

	assert.Equal(t, 42, config.MaxItems)
	assert.Equal(t, 0, config.MaxResponseBytes, "explicit flags are not overridden")
	assert.True(t, config.Security.EnableHSTS)
	assert.Equal(t, "https://example.com", config.Security.AllowedOrigins)
	assert.Equal(t, "windows", config.Cluster.Platform)
	assert.Equal(t, []string{"kube-system", "secrets"}, config.Cluster.RestrictedNamespaces)
}

func TestRunServeRejectsInvalidConfig(t *testing.T) {
	config := validServeConfig()
	config.Transport = "invalid"

	err := runServe(context.Background(), config, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type")
}

func newTestServerContext(t *testing.T, client *testdata.MockK8sClient, opts ...server.Option) *server.ServerContext {
	t.Helper()
	opts = append([]server.Option{
		server.WithK8sClient(client),
		server.WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)
	sc, err := server.NewServerContext(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewMCPServer(t *testing.T) {
	t.Run("registers every tool", func(t *testing.T) {
		mcpSrv, err := newMCPServer(newTestServerContext(t, testdata.NewMockK8sClient(testdata.WebPod())))
		require.NoError(t, err)

		registered := mcpSrv.ListTools()
		assert.Contains(t, registered, podfstools.ToolRoots)
		assert.Contains(t, registered, contexttools.ToolUseContext)
	})

	t.Run("in-cluster skips the context tools", func(t *testing.T) {
		sc := newTestServerContext(t, testdata.NewMockK8sClient(), server.WithInClusterMode(true))
		mcpSrv, err := newMCPServer(sc)
		require.NoError(t, err)

		registered := mcpSrv.ListTools()
		assert.Contains(t, registered, podfstools.ToolRead)
		assert.NotContains(t, registered, contexttools.ToolUseContext)
	})
}

func TestWrapHTTPHandler(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		var tooLarge *http.MaxBytesError
		if _, err := r.Body.Read(buf); errors.As(err, &tooLarge) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("security headers", func(t *testing.T) {
		handler, err := wrapHTTPHandler(echo, nil, SecurityServeConfig{EnableHSTS: true})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("request size limit", func(t *testing.T) {
		handler, err := wrapHTTPHandler(echo, nil, SecurityServeConfig{MaxRequestBytes: 8})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(strings.Repeat("x", 32))))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("invalid origins", func(t *testing.T) {
		_, err := wrapHTTPHandler(echo, nil, SecurityServeConfig{AllowedOrigins: "ftp://example.com"})
		assert.Error(t, err)
	})
}

func TestServeHTTPStopsOnCancel(t *testing.T) {
	sc := newTestServerContext(t, testdata.NewMockK8sClient())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	httpServer := newHTTPServer("127.0.0.1:0", http.NotFoundHandler())
	assert.NoError(t, serveHTTP(ctx, sc, httpServer, nil, MetricsServeConfig{}))
}
