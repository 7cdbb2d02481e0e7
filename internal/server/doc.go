// Package server holds the shared runtime of the mcp-podfs server.
//
// ServerContext carries the Kubernetes client, logger, configuration and
// instrumentation provider, and builds the per-request container filesystem
// trees and content providers used by the MCP tools. Dependencies are
// injected with functional options:
//
//	sc, err := server.NewServerContext(ctx,
//		server.WithK8sClient(client),
//		server.WithLogger(logger),
//		server.WithPlatform("linux"),
//		server.WithInstrumentationProvider(provider),
//	)
//	if err != nil {
//		return err
//	}
//	defer sc.Shutdown()
//
//	tree, err := sc.Tree("", podfs.Linux)
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed, and
// MetricsServer exposes Prometheus metrics on a separate listener.
package server
