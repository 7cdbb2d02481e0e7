package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrNamespace = "namespace"
	attrTool      = "tool"
	attrKind      = "kind"
)

var durationBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}

// Metrics records the server's OpenTelemetry metrics. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	remoteCommandsTotal   metric.Int64Counter
	remoteCommandDuration metric.Float64Histogram

	k8sOperationsTotal   metric.Int64Counter
	k8sOperationDuration metric.Float64Histogram

	toolCallsTotal   metric.Int64Counter
	toolCallDuration metric.Float64Histogram

	reportedFailuresTotal metric.Int64Counter
	azureOperationsTotal  metric.Int64Counter

	// detailedLabels adds the namespace label to remote command and
	// Kubernetes operation metrics.
	detailedLabels bool
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error
	if m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}
	if m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	if m.remoteCommandsTotal, err = meter.Int64Counter(
		"mcp_podfs_remote_commands_total",
		metric.WithDescription("Total number of commands run inside containers"),
		metric.WithUnit("{command}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_podfs_remote_commands_total counter: %w", err)
	}
	if m.remoteCommandDuration, err = meter.Float64Histogram(
		"mcp_podfs_remote_command_duration_seconds",
		metric.WithDescription("Duration of commands run inside containers in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_podfs_remote_command_duration_seconds histogram: %w", err)
	}

	if m.k8sOperationsTotal, err = meter.Int64Counter(
		"mcp_podfs_kubernetes_operations_total",
		metric.WithDescription("Total number of Kubernetes API operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_podfs_kubernetes_operations_total counter: %w", err)
	}
	if m.k8sOperationDuration, err = meter.Float64Histogram(
		"mcp_podfs_kubernetes_operation_duration_seconds",
		metric.WithDescription("Kubernetes API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_podfs_kubernetes_operation_duration_seconds histogram: %w", err)
	}

	if m.toolCallsTotal, err = meter.Int64Counter(
		"mcp_podfs_tool_calls_total",
		metric.WithDescription("Total number of MCP tool calls"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_podfs_tool_calls_total counter: %w", err)
	}
	if m.toolCallDuration, err = meter.Float64Histogram(
		"mcp_podfs_tool_call_duration_seconds",
		metric.WithDescription("MCP tool call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_podfs_tool_call_duration_seconds histogram: %w", err)
	}

	if m.reportedFailuresTotal, err = meter.Int64Counter(
		"mcp_podfs_reported_failures_total",
		metric.WithDescription("Total number of failures sent to the error reporter"),
		metric.WithUnit("{failure}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_podfs_reported_failures_total counter: %w", err)
	}
	if m.azureOperationsTotal, err = meter.Int64Counter(
		"mcp_podfs_azure_operations_total",
		metric.WithDescription("Total number of Azure management and storage operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_podfs_azure_operations_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRemoteCommand records one command run inside a container.
//
// The namespace label is only added with detailed labels enabled; clusters
// with many namespaces should rely on traces instead.
func (m *Metrics) RecordRemoteCommand(ctx context.Context, operation, namespace, status string, duration time.Duration) {
	if m == nil || m.remoteCommandsTotal == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrNamespace, namespace))
	}
	opt := metric.WithAttributes(attrs...)
	m.remoteCommandsTotal.Add(ctx, 1, opt)
	m.remoteCommandDuration.Record(ctx, duration.Seconds(), opt)
}

// ObserveExec records a remote command. It lets *Metrics serve as the exec
// observer of a container filesystem tree.
func (m *Metrics) ObserveExec(ctx context.Context, op, namespace string, duration time.Duration, err error) {
	m.RecordRemoteCommand(ctx, op, namespace, StatusFor(err), duration)
}

// RecordK8sOperation records a Kubernetes API call such as a pod lookup.
func (m *Metrics) RecordK8sOperation(ctx context.Context, operation, namespace, status string, duration time.Duration) {
	if m == nil || m.k8sOperationsTotal == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && namespace != "" {
		attrs = append(attrs, attribute.String(attrNamespace, namespace))
	}
	opt := metric.WithAttributes(attrs...)
	m.k8sOperationsTotal.Add(ctx, 1, opt)
	m.k8sOperationDuration.Record(ctx, duration.Seconds(), opt)
}

// RecordToolCall records an MCP tool invocation.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, duration time.Duration) {
	if m == nil || m.toolCallsTotal == nil {
		return
	}
	opt := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	)
	m.toolCallsTotal.Add(ctx, 1, opt)
	m.toolCallDuration.Record(ctx, duration.Seconds(), opt)
}

// RecordReportedFailure counts a failure sent to the error reporter. kind is
// a short classification such as "remote_command" or "malformed_response".
func (m *Metrics) RecordReportedFailure(ctx context.Context, kind string) {
	if m == nil || m.reportedFailuresTotal == nil {
		return
	}
	m.reportedFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKind, kind)))
}

// RecordAzureOperation counts an Azure call.
func (m *Metrics) RecordAzureOperation(ctx context.Context, operation, status string) {
	if m == nil || m.azureOperationsTotal == nil {
		return
	}
	m.azureOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	))
}
