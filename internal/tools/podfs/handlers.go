package podfstools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
	"github.com/giantswarm/mcp-podfs/internal/k8s"
	"github.com/giantswarm/mcp-podfs/internal/podfs"
	"github.com/giantswarm/mcp-podfs/internal/server"
	"github.com/giantswarm/mcp-podfs/internal/tools"
	"github.com/giantswarm/mcp-podfs/internal/tools/output"
)

// target is the pod, kubeconfig context and platform a tool call works on.
type target struct {
	kubeContext string
	platform    podfs.Platform
	ref         podfs.PodRef
}

// parseTarget reads the shared target parameters and applies the namespace
// policy for operation. A non-nil result is the error to return.
func parseTarget(args map[string]interface{}, sc *server.ServerContext, operation string, needPod bool) (target, *mcp.CallToolResult) {
	t := target{
		kubeContext: tools.StringArg(args, tools.ParamKubeContext),
		ref: podfs.PodRef{
			Name:      tools.StringArg(args, tools.ParamPod),
			Namespace: tools.NamespaceArg(args, sc),
		},
	}
	if needPod && t.ref.Name == "" {
		return t, mcp.NewToolResultError("pod is required")
	}
	if blocked := tools.CheckNamespaceAllowed(sc, operation, t.ref.Namespace); blocked != nil {
		return t, blocked
	}
	platform, err := sc.Platform(tools.StringArg(args, tools.ParamPlatform))
	if err != nil {
		return t, mcp.NewToolResultError(err.Error())
	}
	t.platform = platform
	return t, nil
}

// handleListPods handles pod listing
func handleListPods(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	kubeContext := sc.KubeContext(tools.StringArg(args, tools.ParamKubeContext))
	namespace := tools.NamespaceArg(args, sc)
	if tools.BoolArg(args, "allNamespaces") {
		namespace = ""
	} else if blocked := tools.CheckNamespaceAllowed(sc, "list", namespace); blocked != nil {
		return blocked, nil
	}

	start := time.Now()
	pods, err := sc.K8sClient().ListPods(ctx, kubeContext, namespace, k8s.ListOptions{
		LabelSelector: tools.StringArg(args, "labelSelector"),
	})
	sc.Metrics().RecordK8sOperation(ctx, instrumentation.OperationListPods, namespace, instrumentation.StatusFor(err), time.Since(start))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list pods: %v", err)), nil
	}

	visible := make([]k8s.PodSummary, 0, len(pods))
	for _, p := range pods {
		if !tools.IsRestrictedNamespace(sc, p.Namespace) {
			visible = append(visible, p)
		}
	}

	visible, warning := output.TruncateGeneric(visible, sc.OutputConfig().MaxItems)
	resp := map[string]interface{}{"pods": visible}
	if warning != nil {
		resp["truncation"] = warning
	}
	return tools.JSONResult("pods", resp), nil
}

// handleRoots handles the top level of a pod tree
func handleRoots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	t, errResult := parseTarget(args, sc, "browse", true)
	if errResult != nil {
		return errResult, nil
	}

	tree, err := sc.Tree(t.kubeContext, t.platform)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to browse pod: %v", err)), nil
	}

	collector := &podfs.Collector{}
	ctx = podfs.WithReporter(ctx, collector)

	nodes := tree.Roots(ctx, t.ref)
	if len(nodes) == 0 && collector.Len() > 0 {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get roots of pod %s/%s: %v", t.ref.Namespace, t.ref.Name, collector.Err())), nil
	}

	resp := RootsResponse{Pod: t.ref, Roots: NewNodeViews(nodes)}
	if tools.BoolArg(args, "includeInitContainers") {
		pod, err := sc.PodGetter(t.kubeContext).GetPod(ctx, t.ref.Namespace, t.ref.Name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get init containers: %v", err)), nil
		}
		resp.InitContainers = NewNodeViews(podfs.InitContainers(t.ref, pod))
	}

	return tools.JSONResult("roots", resp), nil
}

// handleChildren handles expanding one folder
func handleChildren(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	t, errResult := parseTarget(args, sc, "browse", true)
	if errResult != nil {
		return errResult, nil
	}
	container := tools.StringArg(args, tools.ParamContainer)
	if container == "" {
		return mcp.NewToolResultError("container is required"), nil
	}

	tree, err := sc.Tree(t.kubeContext, t.platform)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to browse pod: %v", err)), nil
	}

	collector := &podfs.Collector{}
	ctx = podfs.WithReporter(ctx, collector)

	mounts := tree.ContainerMounts(ctx, t.ref, container)
	folder := tree.Folder(t.ref, container, tools.StringArg(args, tools.ParamPath), mounts)

	nodes := tree.ListChildren(ctx, folder)
	if len(nodes) == 0 && collector.Len() > 0 {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list %s in container %s: %v", folder.FullPath(), container, collector.Err())), nil
	}

	limit := output.EffectiveLimit(tools.IntArg(args, "limit"), sc.OutputConfig().MaxItems)
	nodes, warning := output.TruncateGeneric(nodes, limit)

	return tools.JSONResult("children", ChildrenResponse{
		Folder:     NewNodeView(podfs.Node{Kind: podfs.KindFolder, Entry: folder}),
		Children:   NewNodeViews(nodes),
		Truncation: warning,
	}), nil
}

// identifierFromArgs builds a document identifier from either the uri
// argument or the individual target arguments.
func identifierFromArgs(args map[string]interface{}, sc *server.ServerContext) (podfs.Identifier, error) {
	if uri := tools.StringArg(args, "uri"); uri != "" {
		return podfs.ParseIdentifier(uri)
	}
	scheme := podfs.Scheme(tools.StringArg(args, "scheme"))
	if scheme == "" {
		scheme = podfs.SchemeView
	}
	id := podfs.Identifier{
		Scheme:    scheme,
		Pod:       tools.StringArg(args, tools.ParamPod),
		Namespace: tools.NamespaceArg(args, sc),
		Container: tools.StringArg(args, tools.ParamContainer),
		Path:      tools.StringArg(args, tools.ParamPath),
	}
	return id, id.Validate()
}

// handleRead handles document reads
func handleRead(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, err := identifierFromArgs(args, sc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid document: %v", err)), nil
	}
	if blocked := tools.CheckNamespaceAllowed(sc, "read", id.Namespace); blocked != nil {
		return blocked, nil
	}
	platform, err := sc.Platform(tools.StringArg(args, tools.ParamPlatform))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	provider, err := sc.ContentProvider(tools.StringArg(args, tools.ParamKubeContext), platform)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read document: %v", err)), nil
	}

	collector := &podfs.Collector{}
	text := provider.Resolve(podfs.WithReporter(ctx, collector), id)
	text, warning := output.TruncateText(text, sc.OutputConfig().MaxResponseBytes)

	result := mcp.NewToolResultText(text)
	if warning != nil {
		result.Content = append(result.Content, mcp.NewTextContent(warning.Message))
	}
	// The text is the diagnostic when the read failed.
	result.IsError = collector.Len() > 0
	return result, nil
}

// handleTerminalCommand handles terminal command generation
func handleTerminalCommand(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	t, errResult := parseTarget(args, sc, "shell", true)
	if errResult != nil {
		return errResult, nil
	}
	container := tools.StringArg(args, tools.ParamContainer)
	if container == "" {
		return mcp.NewToolResultError("container is required"), nil
	}

	cli := sc.Config().CLI
	action := tools.StringArg(args, "action")
	path := tools.StringArg(args, tools.ParamPath)

	var command string
	switch action {
	case ActionShell:
		command = podfs.ShellCommand(cli, t.platform, &podfs.Container{Pod: t.ref, Name: container})
	case ActionCopy, ActionTail:
		if path == "" {
			return mcp.NewToolResultError(fmt.Sprintf("path is required for %s", action)), nil
		}
		tree, err := sc.Tree(t.kubeContext, t.platform)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to build command: %v", err)), nil
		}
		file := tree.File(t.ref, container, path, nil)
		if action == ActionCopy {
			command = podfs.CopyFromCommand(cli, file)
		} else {
			command = podfs.TailCommand(cli, file)
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q (supported: %s, %s, %s)", action, ActionShell, ActionCopy, ActionTail)), nil
	}

	return tools.JSONResult("command", TerminalCommandResponse{Action: action, Command: command}), nil
}
