// Package tools provides shared utilities and types for MCP tool implementations.
package tools

import (
	"strings"

	mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-podfs/internal/podfs"
	"github.com/giantswarm/mcp-podfs/internal/server"
)

// Parameter names shared by the container filesystem tools.
const (
	ParamKubeContext = "kubeContext"
	ParamPlatform    = "platform"
	ParamNamespace   = "namespace"
	ParamPod         = "pod"
	ParamContainer   = "container"
	ParamPath        = "path"
)

// AddTargetParams returns tool options for the kubeContext and platform
// parameters based on the server's operating mode:
//   - kubeContext is only added when NOT in in-cluster mode
//   - platform is always added and defaults to the server's configured platform
//
// Usage in tool registration:
//
//	opts := []mcp.ToolOption{
//	    mcp.WithDescription("..."),
//	}
//	opts = append(opts, tools.AddTargetParams(sc)...)
//	opts = append(opts, /* tool-specific params */...)
//	tool := mcp.NewTool("tool_name", opts...)
func AddTargetParams(sc *server.ServerContext) []mcp.ToolOption {
	var opts []mcp.ToolOption

	if !sc.InClusterMode() {
		opts = append(opts, mcp.WithString(ParamKubeContext,
			mcp.Description("Kubernetes context to use (optional, uses current context if not specified)"),
		))
	}

	opts = append(opts, mcp.WithString(ParamPlatform,
		mcp.Description("Operating system of the container image (optional, defaults to "+sc.Config().Platform+")"),
		mcp.Enum(string(podfs.Linux), string(podfs.Windows)),
	))

	return opts
}

// StringArg returns a trimmed string argument, or "" when absent or not a string.
func StringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// IntArg returns a numeric argument as an int. JSON numbers arrive as float64.
func IntArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// BoolArg returns a boolean argument, or false when absent.
func BoolArg(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// NamespaceArg returns the namespace argument, or the server default.
func NamespaceArg(args map[string]interface{}, sc *server.ServerContext) string {
	if ns := StringArg(args, ParamNamespace); ns != "" {
		return ns
	}
	return sc.Config().DefaultNamespace
}
