package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
	"github.com/giantswarm/mcp-podfs/internal/logging"
	"github.com/giantswarm/mcp-podfs/internal/server"
	"github.com/giantswarm/mcp-podfs/internal/server/middleware"
)

// runStreamableHTTPServer runs the server with Streamable HTTP transport
func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, provider *instrumentation.Provider, config ServeConfig) error {
	mux := http.NewServeMux()
	mux.Handle(config.HTTPEndpoint, mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(config.HTTPEndpoint),
	))
	server.NewHealthChecker(sc).RegisterHealthEndpoints(mux)

	sc.Logger().Info("streamable HTTP server starting",
		"addr", config.HTTPAddr,
		"endpoint", config.HTTPEndpoint,
		"health_endpoints", []string{"/healthz", "/readyz"})

	handler, err := wrapHTTPHandler(mux, provider, config.Security, config.HTTPEndpoint, "/healthz", "/readyz")
	if err != nil {
		return err
	}
	return serveHTTP(ctx, sc, newHTTPServer(config.HTTPAddr, handler), provider, config.Metrics)
}

// wrapHTTPHandler applies request metrics labelled by routes, security
// headers, CORS and the request size limit.
func wrapHTTPHandler(handler http.Handler, provider *instrumentation.Provider, config SecurityServeConfig, routes ...string) (http.Handler, error) {
	origins, err := middleware.ValidateAllowedOrigins(config.AllowedOrigins)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed origins: %w", err)
	}

	handler = middleware.MaxRequestSize(config.MaxRequestBytes)(handler)
	if len(origins) > 0 {
		handler = middleware.CORS(origins)(handler)
	}
	handler = middleware.SecurityHeaders(middleware.SecurityHeadersConfig{EnableHSTS: config.EnableHSTS})(handler)
	handler = middleware.HTTPMetrics(provider, routes...)(handler)
	return handler, nil
}

// newHTTPServer creates an HTTP server with security timeouts. There is no
// write timeout: SSE and streamed responses stay open.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// serveHTTP runs httpServer and, when enabled, the metrics server until ctx
// is cancelled or either listener fails. Both are then shut down.
func serveHTTP(ctx context.Context, sc *server.ServerContext, httpServer *http.Server, provider *instrumentation.Provider, metricsConfig MetricsServeConfig) error {
	logger := sc.Logger()

	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && provider != nil && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		logger.Info("metrics server started", "addr", metricsServer.Addr(), "endpoint", provider.Config().PrometheusEndpoint)
		g.Go(func() error {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server stopped with error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, stopping HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("error shutting down metrics server", logging.Err(err))
				errs = append(errs, err)
			}
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down HTTP server: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("HTTP server gracefully stopped")
	return nil
}
