package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/giantswarm/mcp-podfs/internal/podfs"
	"github.com/giantswarm/mcp-podfs/internal/server"
	"github.com/giantswarm/mcp-podfs/internal/tools"
	podfstools "github.com/giantswarm/mcp-podfs/internal/tools/podfs"
)

// Output formats of the fs listing commands.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// errRemoteFailures is returned after output was printed when the remote
// command behind it failed.
var errRemoteFailures = errors.New("remote command failed")

// fsOptions holds the flags shared by the fs subcommands.
type fsOptions struct {
	Cluster   ClusterFlags
	Output    string
	DebugMode bool
}

// newFSCmd creates the command group for browsing container filesystems
// from a terminal.
func newFSCmd() *cobra.Command {
	opts := &fsOptions{}

	cmd := &cobra.Command{
		Use:   "fs",
		Short: "Browse files inside pod containers",
		Long: `Browse the filesystems of running containers from a terminal.

Listings run one command inside the container per folder. Files and folders
are read as documents identified by scheme:pod:namespace:container:path.`,
	}

	opts.Cluster.addTo(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", outputText, "Output format of listings: text, json or yaml")
	cmd.PersistentFlags().BoolVar(&opts.DebugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newFSRootsCmd(opts),
		newFSListCmd(opts),
		newFSReadCmd(opts, "cat", podfs.SchemeView, "Print a file"),
		newFSReadCmd(opts, "find", podfs.SchemeFind, "Recursively list a folder"),
		newFSReadCmd(opts, "ls-al", podfs.SchemeListDetailed, "Print the long listing of a folder"),
		newFSOpenCmd(opts),
		newFSTerminalCmd(opts, "shell", podfstools.ActionShell, "Print the command that opens a shell in a container"),
		newFSTerminalCmd(opts, "cp", podfstools.ActionCopy, "Print the command that copies a file out of a container"),
		newFSTerminalCmd(opts, "tail", podfstools.ActionTail, "Print the command that follows a file in a container"),
	)
	return cmd
}

// serverContext builds the ServerContext the fs commands run against.
// Failures are logged to stderr.
func (o *fsOptions) serverContext(ctx context.Context, stderr io.Writer) (*server.ServerContext, error) {
	o.Cluster.loadEnv()
	if err := o.Cluster.Validate(); err != nil {
		return nil, err
	}
	switch o.Output {
	case outputText, outputJSON, outputYAML:
	default:
		return nil, fmt.Errorf("unsupported output format %q (supported: text, json, yaml)", o.Output)
	}

	logger := newLogger(stderr, o.DebugMode)
	client, err := newK8sClient(o.Cluster.clientConfig(logger, o.DebugMode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", podfs.ErrHostCapabilityUnavailable, err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return server.NewServerContext(ctx,
		server.WithK8sClient(client),
		server.WithLogger(logger),
		server.WithInClusterMode(o.Cluster.InCluster),
		server.WithDefaultNamespace(o.Cluster.Namespace),
		server.WithKubeContext(o.Cluster.Context),
		server.WithPlatform(o.Cluster.Platform),
		server.WithCLI(o.Cluster.CLI),
		server.WithRestrictedNamespaces(o.Cluster.RestrictedNamespaces),
	)
}

// podRef returns the pod addressed by name in the configured namespace,
// refusing restricted namespaces.
func (o *fsOptions) podRef(sc *server.ServerContext, operation, name string) (podfs.PodRef, error) {
	ref := podfs.PodRef{Name: name, Namespace: sc.Config().DefaultNamespace}
	return ref, tools.ValidateNamespace(sc, operation, ref.Namespace)
}

func newFSRootsCmd(opts *fsOptions) *cobra.Command {
	var initContainers bool

	cmd := &cobra.Command{
		Use:   "roots POD",
		Short: "List the volumes, containers and container root folders of a pod",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := opts.serverContext(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			ref, err := opts.podRef(sc, "browse", args[0])
			if err != nil {
				return err
			}
			tree, err := sc.Tree("", mustPlatform(sc))
			if err != nil {
				return err
			}

			collector := &podfs.Collector{}
			ctx := podfs.WithReporter(sc.Context(), collector)
			resp := podfstools.RootsResponse{Pod: ref, Roots: podfstools.NewNodeViews(tree.Roots(ctx, ref))}
			if collector.Len() > 0 {
				return fmt.Errorf("failed to get roots of pod %s/%s: %w", ref.Namespace, ref.Name, collector.Err())
			}

			if initContainers {
				pod, err := sc.PodGetter("").GetPod(ctx, ref.Namespace, ref.Name)
				if err != nil {
					return fmt.Errorf("failed to get init containers: %w", err)
				}
				resp.InitContainers = podfstools.NewNodeViews(podfs.InitContainers(ref, pod))
			}

			nodes := append(append([]podfstools.NodeView{}, resp.Roots...), resp.InitContainers...)
			return printNodes(cmd.OutOrStdout(), opts.Output, resp, nodes)
		},
	}
	cmd.Flags().BoolVar(&initContainers, "init-containers", false, "Also list the pod's init containers")
	return cmd
}

func newFSListCmd(opts *fsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls POD CONTAINER [PATH]",
		Short: "List one folder of a container",
		Long: `List one folder of a container. Folders carry the platform separator as
suffix. PATH defaults to the container's root folder.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := opts.serverContext(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			ref, err := opts.podRef(sc, "browse", args[0])
			if err != nil {
				return err
			}
			tree, err := sc.Tree("", mustPlatform(sc))
			if err != nil {
				return err
			}

			collector := &podfs.Collector{}
			ctx := podfs.WithReporter(sc.Context(), collector)

			mounts := tree.ContainerMounts(ctx, ref, args[1])
			folder := tree.Folder(ref, args[1], optionalArg(args, 2), mounts)
			children := podfstools.NewNodeViews(tree.ListChildren(ctx, folder))

			resp := podfstools.ChildrenResponse{
				Folder:   podfstools.NewNodeView(podfs.Node{Kind: podfs.KindFolder, Entry: folder}),
				Children: children,
			}
			if err := printNodes(cmd.OutOrStdout(), opts.Output, resp, children); err != nil {
				return err
			}
			if collector.Len() > 0 {
				return fmt.Errorf("failed to list %s: %w", folder.FullPath(), errRemoteFailures)
			}
			return nil
		},
	}
}

func newFSReadCmd(opts *fsOptions, use string, scheme podfs.Scheme, short string) *cobra.Command {
	args := cobra.RangeArgs(2, 3)
	usage := use + " POD CONTAINER [PATH]"
	if scheme == podfs.SchemeView {
		args = cobra.ExactArgs(3)
		usage = use + " POD CONTAINER PATH"
	}

	return &cobra.Command{
		Use:   usage,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := opts.serverContext(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			ref, err := opts.podRef(sc, "read", args[0])
			if err != nil {
				return err
			}
			platform := mustPlatform(sc)
			path := optionalArg(args, 2)
			if path == "" {
				path = platform.Root()
			}

			id := podfs.Identifier{Scheme: scheme, Pod: ref.Name, Namespace: ref.Namespace, Container: args[1], Path: path}
			if err := id.Validate(); err != nil {
				return err
			}
			return resolveDocument(cmd, sc, platform, func(ctx context.Context, p *podfs.ContentProvider) string {
				return p.Resolve(ctx, id)
			})
		},
	}
}

func newFSOpenCmd(opts *fsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open IDENTIFIER",
		Short: "Print the document with the given identifier",
		Long: `Print the document with the given identifier, for example
view:web-0:default:nginx:/etc/nginx/nginx.conf.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := opts.serverContext(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			if id, err := podfs.ParseIdentifier(args[0]); err == nil {
				if err := tools.ValidateNamespace(sc, "read", id.Namespace); err != nil {
					return err
				}
			}
			return resolveDocument(cmd, sc, mustPlatform(sc), func(ctx context.Context, p *podfs.ContentProvider) string {
				return p.ResolveString(ctx, args[0])
			})
		},
	}
}

// resolveDocument prints the document text, which is the diagnostic when the
// read failed, and turns a failure into the command's error.
func resolveDocument(cmd *cobra.Command, sc *server.ServerContext, platform podfs.Platform, resolve func(context.Context, *podfs.ContentProvider) string) error {
	provider, err := sc.ContentProvider("", platform)
	if err != nil {
		return err
	}

	collector := &podfs.Collector{}
	text := resolve(podfs.WithReporter(sc.Context(), collector), provider)
	if _, err := io.WriteString(cmd.OutOrStdout(), text); err != nil {
		return err
	}
	if collector.Len() > 0 {
		return fmt.Errorf("%w: %v", errRemoteFailures, collector.Err())
	}
	return nil
}

func newFSTerminalCmd(opts *fsOptions, use, action, short string) *cobra.Command {
	args := cobra.ExactArgs(3)
	usage := use + " POD CONTAINER PATH"
	if action == podfstools.ActionShell {
		args = cobra.ExactArgs(2)
		usage = use + " POD CONTAINER"
	}

	return &cobra.Command{
		Use:   usage,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := opts.serverContext(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			ref, err := opts.podRef(sc, "shell", args[0])
			if err != nil {
				return err
			}
			platform := mustPlatform(sc)
			cli := sc.Config().CLI

			var command string
			switch action {
			case podfstools.ActionShell:
				command = podfs.ShellCommand(cli, platform, &podfs.Container{Pod: ref, Name: args[1]})
			default:
				tree, err := sc.Tree("", platform)
				if err != nil {
					return err
				}
				file := tree.File(ref, args[1], args[2], nil)
				if action == podfstools.ActionCopy {
					command = podfs.CopyFromCommand(cli, file)
				} else {
					command = podfs.TailCommand(cli, file)
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), command)
			return err
		},
	}
}

// printNodes writes v as JSON or YAML, or nodes as a table.
func printNodes(w io.Writer, format string, v any, nodes []podfstools.NodeView) error {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KIND\tNAME\tPATH")
	for _, n := range nodes {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", n.Kind, n.Label, n.Path)
	}
	return tw.Flush()
}

// mustPlatform returns the configured platform, which was validated when
// the ServerContext was built.
func mustPlatform(sc *server.ServerContext) podfs.Platform {
	p, err := sc.Platform("")
	if err != nil {
		return podfs.Linux
	}
	return p
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
