package podfstools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-podfs/internal/podfs"
	"github.com/giantswarm/mcp-podfs/internal/server"
	"github.com/giantswarm/mcp-podfs/internal/tools"
)

// Tool names.
const (
	ToolListPods        = "pod_list"
	ToolRoots           = "container_fs_roots"
	ToolChildren        = "container_fs_children"
	ToolRead            = "container_fs_read"
	ToolTerminalCommand = "container_terminal_command"
)

// Terminal command actions.
const (
	ActionShell = "shell"
	ActionCopy  = "copy"
	ActionTail  = "tail"
)

// RegisterPodfsTools registers the container filesystem tools and the
// document resource templates with the MCP server.
func RegisterPodfsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil || sc.K8sClient() == nil {
		return fmt.Errorf("%w: no Kubernetes client", podfs.ErrHostCapabilityUnavailable)
	}

	// pod_list tool
	opts := []mcp.ToolOption{
		mcp.WithDescription("List pods whose container filesystems can be browsed"),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	opts = append(opts, tools.AddTargetParams(sc)...)
	opts = append(opts,
		mcp.WithString(tools.ParamNamespace,
			mcp.Description("Namespace to list pods from (optional, uses the server default)"),
		),
		mcp.WithBoolean("allNamespaces",
			mcp.Description("List pods across all namespaces"),
		),
		mcp.WithString("labelSelector",
			mcp.Description("Label selector to filter pods (e.g. app=nginx)"),
		),
	)
	s.AddTool(mcp.NewTool(ToolListPods, opts...),
		tools.WrapWithInstrumentation(ToolListPods, handleListPods, sc))

	// container_fs_roots tool
	opts = []mcp.ToolOption{
		mcp.WithDescription("Get the top-level tree of a pod: its volumes, its containers, and one root folder per container"),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	opts = append(opts, tools.AddTargetParams(sc)...)
	opts = append(opts,
		mcp.WithString(tools.ParamPod,
			mcp.Required(),
			mcp.Description("Name of the pod to browse"),
		),
		mcp.WithString(tools.ParamNamespace,
			mcp.Description("Namespace of the pod (optional, uses the server default)"),
		),
		mcp.WithBoolean("includeInitContainers",
			mcp.Description("Also list the pod's init containers"),
		),
	)
	s.AddTool(mcp.NewTool(ToolRoots, opts...),
		tools.WrapWithInstrumentation(ToolRoots, handleRoots, sc))

	// container_fs_children tool
	opts = []mcp.ToolOption{
		mcp.WithDescription("List the folders and files directly inside a folder of a running container"),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	opts = append(opts, tools.AddTargetParams(sc)...)
	opts = append(opts,
		mcp.WithString(tools.ParamPod,
			mcp.Required(),
			mcp.Description("Name of the pod"),
		),
		mcp.WithString(tools.ParamNamespace,
			mcp.Description("Namespace of the pod (optional, uses the server default)"),
		),
		mcp.WithString(tools.ParamContainer,
			mcp.Required(),
			mcp.Description("Name of the container"),
		),
		mcp.WithString(tools.ParamPath,
			mcp.Description("Absolute folder path inside the container (optional, defaults to the filesystem root)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries to return"),
		),
	)
	s.AddTool(mcp.NewTool(ToolChildren, opts...),
		tools.WrapWithInstrumentation(ToolChildren, handleChildren, sc))

	// container_fs_read tool
	opts = []mcp.ToolOption{
		mcp.WithDescription("Read a document from a running container: file contents (view), a recursive folder listing (find) or a long folder listing (list-detailed)"),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	opts = append(opts, tools.AddTargetParams(sc)...)
	opts = append(opts,
		mcp.WithString("uri",
			mcp.Description("Document identifier scheme:pod:namespace:container:path as returned in a node's documents (takes precedence over the other target parameters)"),
		),
		mcp.WithString("scheme",
			mcp.Description("What to read"),
			mcp.Enum(string(podfs.SchemeView), string(podfs.SchemeFind), string(podfs.SchemeListDetailed)),
		),
		mcp.WithString(tools.ParamPod,
			mcp.Description("Name of the pod"),
		),
		mcp.WithString(tools.ParamNamespace,
			mcp.Description("Namespace of the pod (optional, uses the server default)"),
		),
		mcp.WithString(tools.ParamContainer,
			mcp.Description("Name of the container"),
		),
		mcp.WithString(tools.ParamPath,
			mcp.Description("Absolute path of the file or folder inside the container"),
		),
	)
	s.AddTool(mcp.NewTool(ToolRead, opts...),
		tools.WrapWithInstrumentation(ToolRead, handleRead, sc))

	// container_terminal_command tool
	opts = []mcp.ToolOption{
		mcp.WithDescription("Get the command line that opens a shell in a container, copies a file out of it, or follows a file"),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	opts = append(opts, tools.AddTargetParams(sc)...)
	opts = append(opts,
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Command to generate"),
			mcp.Enum(ActionShell, ActionCopy, ActionTail),
		),
		mcp.WithString(tools.ParamPod,
			mcp.Required(),
			mcp.Description("Name of the pod"),
		),
		mcp.WithString(tools.ParamNamespace,
			mcp.Description("Namespace of the pod (optional, uses the server default)"),
		),
		mcp.WithString(tools.ParamContainer,
			mcp.Required(),
			mcp.Description("Name of the container"),
		),
		mcp.WithString(tools.ParamPath,
			mcp.Description("Absolute file path, required for copy and tail"),
		),
	)
	s.AddTool(mcp.NewTool(ToolTerminalCommand, opts...),
		tools.WrapWithInstrumentation(ToolTerminalCommand, handleTerminalCommand, sc))

	registerDocumentTemplates(s, sc)

	return nil
}
