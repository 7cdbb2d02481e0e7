// Package instrumentation wires OpenTelemetry metrics and tracing for the
// mcp-podfs server.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: HTTP transport
//   - mcp_podfs_remote_commands_total, mcp_podfs_remote_command_duration_seconds:
//     commands run inside containers, by operation (list, view, find,
//     list-detailed) and status
//   - mcp_podfs_kubernetes_operations_total, mcp_podfs_kubernetes_operation_duration_seconds:
//     Kubernetes API calls such as pod lookups
//   - mcp_podfs_tool_calls_total, mcp_podfs_tool_call_duration_seconds: MCP tools
//   - mcp_podfs_reported_failures_total: failures sent to the error reporter
//   - mcp_podfs_azure_operations_total: AKS credential and diagnostics calls
//
// The namespace label is only recorded when Config.DetailedLabels is set.
//
// # Configuration
//
// DefaultConfig reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER
// (prometheus, otlp, stdout), TRACING_EXPORTER (otlp, stdout, none),
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE,
// OTEL_TRACES_SAMPLER_ARG, OTEL_SERVICE_NAME and METRICS_DETAILED_LABELS.
//
// # Example
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	tree, err := podfs.NewTree(pods, exec, podfs.WithExecObserver(provider.Metrics()))
package instrumentation
