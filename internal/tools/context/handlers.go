package contexttools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-podfs/internal/server"
	"github.com/giantswarm/mcp-podfs/internal/tools"
)

// handleListContexts handles kubectl context list operations
func handleListContexts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	contexts, err := sc.K8sClient().ListContexts(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list contexts: %v", err)), nil
	}
	return tools.JSONResult("contexts", contexts), nil
}

// handleGetCurrentContext handles kubectl context get-current operations
func handleGetCurrentContext(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	currentContext, err := sc.K8sClient().GetCurrentContext(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get current context: %v", err)), nil
	}
	return tools.JSONResult("current context", currentContext), nil
}

// handleUseContext handles kubectl context use operations
func handleUseContext(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	contextName := tools.StringArg(request.GetArguments(), "contextName")
	if contextName == "" {
		return mcp.NewToolResultError("contextName is required"), nil
	}

	if err := sc.K8sClient().SwitchContext(ctx, contextName); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to switch context: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully switched to context: %s", contextName)), nil
}
