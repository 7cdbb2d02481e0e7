package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
	"github.com/giantswarm/mcp-podfs/internal/logging"
	"github.com/giantswarm/mcp-podfs/internal/podfs"
	"github.com/giantswarm/mcp-podfs/internal/server"
	contexttools "github.com/giantswarm/mcp-podfs/internal/tools/context"
	podfstools "github.com/giantswarm/mcp-podfs/internal/tools/podfs"
)

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	config := ServeConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP container filesystem server",
		Long: `Start the MCP server that lets clients browse the filesystems of running
Kubernetes containers via the Model Context Protocol.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

Authentication modes:
  - Kubeconfig (default): Uses standard kubeconfig file authentication
  - In-cluster: Uses service account token when running inside a Kubernetes pod`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(os.Stderr, config.DebugMode)
			loadServeEnv(cmd, &config, logger)
			return runServe(cmd.Context(), config, logger)
		},
	}

	config.Cluster.addTo(cmd.Flags())
	cmd.Flags().BoolVar(&config.DebugMode, "debug", false, "Enable debug logging (default: false)")

	// Transport flags
	cmd.Flags().StringVar(&config.Transport, "transport", transportStdio, "Transport type: stdio, sse, or streamable-http")
	cmd.Flags().StringVar(&config.HTTPAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&config.SSEEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&config.MessageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&config.HTTPEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http transport)")

	// Output limits
	cmd.Flags().IntVar(&config.MaxItems, "max-items", 0, "Maximum entries per listing (default: 500, can also be set via MAX_ITEMS env var)")
	cmd.Flags().IntVar(&config.MaxResponseBytes, "max-response-bytes", 0, "Maximum document size in bytes (default: 512KiB, can also be set via MAX_RESPONSE_BYTES env var)")

	// Metrics and HTTP hardening
	cmd.Flags().BoolVar(&config.Metrics.Enabled, "metrics", true, "Serve Prometheus metrics on a dedicated listener when instrumentation is enabled (HTTP transports)")
	cmd.Flags().StringVar(&config.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address")
	cmd.Flags().BoolVar(&config.Security.EnableHSTS, "enable-hsts", false, "Send HSTS headers, for deployments behind a TLS terminating proxy (can also be set via ENABLE_HSTS env var)")
	cmd.Flags().StringVar(&config.Security.AllowedOrigins, "allowed-origins", "", "Comma separated CORS origins allowed to call the server (can also be set via ALLOWED_ORIGINS env var)")
	cmd.Flags().Int64Var(&config.Security.MaxRequestBytes, "max-request-bytes", defaultMaxRequestBytes, "Maximum MCP request body size in bytes, 0 disables the limit")

	return cmd
}

// loadServeEnv fills settings from environment variables for flags the user
// did not set.
func loadServeEnv(cmd *cobra.Command, config *ServeConfig, logger *slog.Logger) {
	config.Cluster.loadEnv()

	if !cmd.Flags().Changed("max-items") {
		if n, ok := parseIntEnv(os.Getenv("MAX_ITEMS"), "MAX_ITEMS", logger); ok {
			config.MaxItems = n
		}
	}
	if !cmd.Flags().Changed("max-response-bytes") {
		if n, ok := parseIntEnv(os.Getenv("MAX_RESPONSE_BYTES"), "MAX_RESPONSE_BYTES", logger); ok {
			config.MaxResponseBytes = n
		}
	}
	if !cmd.Flags().Changed("enable-hsts") && os.Getenv("ENABLE_HSTS") == envValueTrue {
		config.Security.EnableHSTS = true
	}
	if !cmd.Flags().Changed("allowed-origins") {
		loadEnvIfEmpty(&config.Security.AllowedOrigins, "ALLOWED_ORIGINS")
	}
}

// runServe contains the main server logic with support for multiple transports
func runServe(ctx context.Context, config ServeConfig, logger *slog.Logger) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// Setup graceful shutdown - listen for both SIGINT and SIGTERM
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	k8sClient, err := newK8sClient(config.Cluster.clientConfig(logger, config.DebugMode))
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	// Initialize OpenTelemetry instrumentation provider
	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceVersion = rootCmd.Version
	instrumentationProvider, err := instrumentation.NewProvider(shutdownCtx, instrumentationConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if shutdownErr := instrumentationProvider.Shutdown(context.Background()); shutdownErr != nil {
			logger.Error("error during instrumentation shutdown", logging.Err(shutdownErr))
		}
	}()

	if instrumentationProvider.Enabled() {
		logger.Info("OpenTelemetry instrumentation enabled",
			"metrics", instrumentationConfig.MetricsExporter,
			"tracing", instrumentationConfig.TracingExporter)
	}

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithK8sClient(k8sClient),
		server.WithLogger(logger),
		server.WithServerName(rootCmd.Name()),
		server.WithVersion(rootCmd.Version),
		server.WithInstrumentationProvider(instrumentationProvider),
		server.WithInClusterMode(config.Cluster.InCluster),
		server.WithDefaultNamespace(config.Cluster.Namespace),
		server.WithKubeContext(config.Cluster.Context),
		server.WithPlatform(config.Cluster.Platform),
		server.WithCLI(config.Cluster.CLI),
		server.WithRestrictedNamespaces(config.Cluster.RestrictedNamespaces),
		server.WithOutputConfig(config.outputConfig()),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return err
	}

	switch config.Transport {
	case transportSSE:
		logger.Info("starting MCP server", "transport", config.Transport)
		return runSSEServer(shutdownCtx, mcpSrv, serverContext, instrumentationProvider, config)
	case transportStreamableHTTP:
		logger.Info("starting MCP server", "transport", config.Transport)
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, instrumentationProvider, config)
	default:
		// Nothing may be written to stdout in stdio mode.
		return runStdioServer(shutdownCtx, mcpSrv)
	}
}

// newMCPServer creates the MCP server and registers every tool category.
// Without a usable Kubernetes client the container filesystem tools are
// skipped rather than failing the server.
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer(sc.Config().ServerName, sc.Config().Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithRecovery(),
	)

	if err := podfstools.RegisterPodfsTools(mcpSrv, sc); err != nil {
		if !errors.Is(err, podfs.ErrHostCapabilityUnavailable) {
			return nil, fmt.Errorf("failed to register container filesystem tools: %w", err)
		}
		sc.Logger().Warn("container filesystem tools not registered", logging.Err(err))
	}

	if err := contexttools.RegisterContextTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register context tools: %w", err)
	}

	return mcpSrv, nil
}
