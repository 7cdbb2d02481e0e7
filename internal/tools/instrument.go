package tools

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
	"github.com/giantswarm/mcp-podfs/internal/logging"
	"github.com/giantswarm/mcp-podfs/internal/server"
)

// WrapWithInstrumentation wraps a tool handler so that every invocation:
//   - runs inside a "tool.<name>" span carrying the target from the arguments
//   - is counted and timed in the tool call metrics
//   - is logged at debug level with its outcome
//
// MCP tool errors are returned in the result, not as Go errors; both count as
// failed calls.
func WrapWithInstrumentation(
	toolName string,
	handler ToolHandler,
	sc *server.ServerContext,
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		attrs := instrumentation.NewSpanAttributeBuilder().
			WithCluster(StringArg(args, ParamKubeContext)).
			WithTarget(StringArg(args, ParamNamespace), StringArg(args, ParamPod), StringArg(args, ParamContainer)).
			WithPath(StringArg(args, ParamPath)).
			Build()

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs...)
		start := time.Now()

		result, err := handler(ctx, request, sc)

		callErr := err
		if callErr == nil && result != nil && result.IsError {
			callErr = errors.New(ResultText(result))
		}
		duration := time.Since(start)

		sc.Metrics().RecordToolCall(ctx, toolName, instrumentation.StatusFor(callErr), duration)
		instrumentation.EndSpan(span, callErr)

		logger := logging.WithTool(sc.Logger(), toolName).With(
			logging.Status(instrumentation.StatusFor(callErr)))
		if callErr != nil {
			logger.DebugContext(ctx, "tool call failed",
				logging.Err(callErr), logging.Duration(duration))
		} else {
			logger.DebugContext(ctx, "tool call completed", logging.Duration(duration))
		}

		return result, err
	}
}
