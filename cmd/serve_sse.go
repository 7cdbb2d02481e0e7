package cmd

import (
	"context"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
	"github.com/giantswarm/mcp-podfs/internal/server"
)

// runSSEServer runs the server with SSE transport
func runSSEServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, provider *instrumentation.Provider, config ServeConfig) error {
	sseServer := mcpserver.NewSSEServer(mcpSrv,
		mcpserver.WithSSEEndpoint(config.SSEEndpoint),
		mcpserver.WithMessageEndpoint(config.MessageEndpoint),
	)

	mux := http.NewServeMux()
	mux.Handle(config.SSEEndpoint, sseServer)
	mux.Handle(config.MessageEndpoint, sseServer)
	server.NewHealthChecker(sc).RegisterHealthEndpoints(mux)

	sc.Logger().Debug("SSE server configuration",
		"addr", config.HTTPAddr,
		"sse_endpoint", config.SSEEndpoint,
		"message_endpoint", config.MessageEndpoint)
	sc.Logger().Info("SSE server starting", "addr", config.HTTPAddr)

	handler, err := wrapHTTPHandler(mux, provider, config.Security, config.SSEEndpoint, config.MessageEndpoint, "/healthz", "/readyz")
	if err != nil {
		return err
	}

	// Close open event streams before the listener drains.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = sseServer.Shutdown(shutdownCtx)
	}()

	return serveHTTP(ctx, sc, newHTTPServer(config.HTTPAddr, handler), provider, config.Metrics)
}
