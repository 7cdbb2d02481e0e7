package contexttools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-podfs/internal/server"
	"github.com/giantswarm/mcp-podfs/internal/tools"
)

// Tool names.
const (
	ToolListContexts      = "kubectl_context_list"
	ToolGetCurrentContext = "kubectl_context_get_current"
	ToolUseContext        = "kubectl_context_use"
)

// RegisterContextTools registers the kubeconfig context tools with the MCP
// server. In-cluster servers have a single service account context, so
// nothing is registered.
func RegisterContextTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.InClusterMode() {
		return nil
	}

	// kubectl_context_list tool
	listContextsTool := mcp.NewTool(ToolListContexts,
		mcp.WithDescription("List all available Kubernetes contexts"),
	)
	s.AddTool(listContextsTool, tools.WrapWithInstrumentation(ToolListContexts, handleListContexts, sc))

	// kubectl_context_get_current tool
	getCurrentContextTool := mcp.NewTool(ToolGetCurrentContext,
		mcp.WithDescription("Get the current Kubernetes context"),
	)
	s.AddTool(getCurrentContextTool, tools.WrapWithInstrumentation(ToolGetCurrentContext, handleGetCurrentContext, sc))

	// kubectl_context_use tool
	useContextTool := mcp.NewTool(ToolUseContext,
		mcp.WithDescription("Switch to a different Kubernetes context. Later calls that name no kubeContext browse pods in it"),
		mcp.WithString("contextName",
			mcp.Required(),
			mcp.Description("Name of the Kubernetes context to switch to"),
		),
	)
	s.AddTool(useContextTool, tools.WrapWithInstrumentation(ToolUseContext, handleUseContext, sc))

	return nil
}
