package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of all spans and meters.
const TracerName = "github.com/giantswarm/mcp-podfs"

// Span attribute keys.
const (
	SpanAttrTool        = "mcp.tool"
	SpanAttrCluster     = "mcp.cluster"
	SpanAttrScheme      = "podfs.scheme"
	SpanAttrPath        = "podfs.path"
	SpanAttrNamespace   = "k8s.namespace"
	SpanAttrPod         = "k8s.pod.name"
	SpanAttrContainer   = "k8s.container.name"
	SpanAttrOperation   = "podfs.operation"
	SpanAttrExitCode    = "podfs.exit_code"
	SpanAttrNodeCount   = "podfs.node_count"
	SpanAttrAzureTarget = "azure.resource_id"
)

// SpanAttributeBuilder collects span attributes, skipping empty values.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{attrs: make([]attribute.KeyValue, 0, 8)}
}

func (b *SpanAttributeBuilder) add(key, value string) *SpanAttributeBuilder {
	if value != "" {
		b.attrs = append(b.attrs, attribute.String(key, value))
	}
	return b
}

// WithTool adds the MCP tool name.
func (b *SpanAttributeBuilder) WithTool(tool string) *SpanAttributeBuilder {
	return b.add(SpanAttrTool, tool)
}

// WithCluster adds the kubeconfig context or cluster name.
func (b *SpanAttributeBuilder) WithCluster(cluster string) *SpanAttributeBuilder {
	return b.add(SpanAttrCluster, cluster)
}

// WithTarget adds the namespace, pod and container a command runs in.
func (b *SpanAttributeBuilder) WithTarget(namespace, pod, container string) *SpanAttributeBuilder {
	return b.add(SpanAttrNamespace, namespace).add(SpanAttrPod, pod).add(SpanAttrContainer, container)
}

// WithPath adds a container filesystem path.
func (b *SpanAttributeBuilder) WithPath(path string) *SpanAttributeBuilder {
	return b.add(SpanAttrPath, path)
}

// WithScheme adds a document scheme.
func (b *SpanAttributeBuilder) WithScheme(scheme string) *SpanAttributeBuilder {
	return b.add(SpanAttrScheme, scheme)
}

// WithOperation adds the operation type.
func (b *SpanAttributeBuilder) WithOperation(operation string) *SpanAttributeBuilder {
	return b.add(SpanAttrOperation, operation)
}

// WithNodeCount adds the number of tree nodes returned.
func (b *SpanAttributeBuilder) WithNodeCount(n int) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Int(SpanAttrNodeCount, n))
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a span named name on the global tracer provider.
// The caller must end it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a server span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartExecSpan starts a client span for a command run inside a container.
func StartExecSpan(ctx context.Context, operation, namespace, pod, container string) (context.Context, trace.Span) {
	attrs := NewSpanAttributeBuilder().
		WithOperation(operation).
		WithTarget(namespace, pod, container).
		Build()

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "exec."+operation,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartAzureSpan starts a client span for an Azure call.
func StartAzureSpan(ctx context.Context, operation, resourceID string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "azure."+operation,
		trace.WithAttributes(
			attribute.String(SpanAttrOperation, operation),
			attribute.String(SpanAttrAzureTarget, resourceID),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records err on the span and marks it failed.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// EndSpan sets the status from err and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		SetSpanError(span, err)
	} else {
		SetSpanSuccess(span)
	}
	span.End()
}

// GetTraceID returns the trace ID of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID of the span in ctx, or "".
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
