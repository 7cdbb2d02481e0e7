package podfs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/giantswarm/mcp-podfs/internal/logging"
)

// DefaultNamespace is used when a pod reference has no namespace.
const DefaultNamespace = "default"

// OpList is the operation name reported to an ExecObserver for folder
// listings. Document reads report their scheme.
const OpList = "list"

// PodGetter fetches the structured specification of a pod.
type PodGetter interface {
	GetPod(ctx context.Context, namespace, name string) (*corev1.Pod, error)
}

// PodGetterFunc adapts a function to the PodGetter interface.
type PodGetterFunc func(ctx context.Context, namespace, name string) (*corev1.Pod, error)

// GetPod calls f.
func (f PodGetterFunc) GetPod(ctx context.Context, namespace, name string) (*corev1.Pod, error) {
	return f(ctx, namespace, name)
}

// Tree produces the nodes of a pod's container filesystems on demand. It
// keeps no node state; every call re-queries the cluster.
type Tree struct {
	pods     PodGetter
	exec     Executor
	platform Platform
	reporter Reporter
	logger   *slog.Logger
	observer ExecObserver
}

// ExecObserver is notified after every remote command the tree or content
// provider runs. It is used for metrics.
type ExecObserver interface {
	ObserveExec(ctx context.Context, op, namespace string, duration time.Duration, err error)
}

// Option configures a Tree or ContentProvider.
type Option func(*options)

type options struct {
	platform Platform
	reporter Reporter
	logger   *slog.Logger
	observer ExecObserver
}

// WithPlatform selects the container platform. Defaults to Linux.
func WithPlatform(p Platform) Option {
	return func(o *options) { o.platform = p }
}

// WithReporterSink sets the reporter failures are sent to. Defaults to a
// LogReporter on the configured logger.
func WithReporterSink(r Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithLogger sets the logger used for debug output and the default reporter.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithExecObserver sets an observer notified after each remote command.
func WithExecObserver(obs ExecObserver) Option {
	return func(o *options) { o.observer = obs }
}

func buildOptions(opts []Option) options {
	o := options{platform: Linux}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.reporter == nil {
		o.reporter = NewLogReporter(o.logger)
	}
	return o
}

// NewTree returns a tree reading pod specs through pods and listing folders
// through exec.
func NewTree(pods PodGetter, exec Executor, opts ...Option) (*Tree, error) {
	if pods == nil {
		return nil, fmt.Errorf("%w: pod getter is required", ErrHostCapabilityUnavailable)
	}
	if exec == nil {
		return nil, fmt.Errorf("%w: executor is required", ErrHostCapabilityUnavailable)
	}
	o := buildOptions(opts)
	return &Tree{
		pods:     pods,
		exec:     exec,
		platform: o.platform,
		reporter: o.reporter,
		logger:   o.logger,
		observer: o.observer,
	}, nil
}

// Platform returns the platform the tree was built for.
func (t *Tree) Platform() Platform {
	return t.platform
}

// Roots returns the top-level nodes of a pod: its volumes, then its
// containers, then one root folder per container. On failure the error is
// reported and an empty slice returned.
func (t *Tree) Roots(ctx context.Context, ref PodRef) []Node {
	if ref.Namespace == "" {
		ref.Namespace = DefaultNamespace
	}
	pod, err := t.pods.GetPod(ctx, ref.Namespace, ref.Name)
	if err != nil {
		report(ctx, t.reporter, &CommandError{
			Target:   Target{Pod: ref.Name, Namespace: ref.Namespace},
			Command:  "get pod " + ref.Name,
			ExitCode: -1,
			Err:      err,
		})
		return []Node{}
	}
	if pod == nil || len(pod.Spec.Containers) == 0 {
		report(ctx, t.reporter, fmt.Errorf("%w: pod %s/%s has no containers", ErrMalformedResponse, ref.Namespace, ref.Name))
		return []Node{}
	}
	return t.rootsFromSpec(ref, &pod.Spec)
}

func (t *Tree) rootsFromSpec(ref PodRef, spec *corev1.PodSpec) []Node {
	nodes := make([]Node, 0, len(spec.Volumes)+2*len(spec.Containers))
	for i := range spec.Volumes {
		v := spec.Volumes[i]
		nodes = append(nodes, Node{Kind: KindVolume, Volume: &Volume{Name: v.Name, Spec: v}})
	}

	containers := make([]*Container, 0, len(spec.Containers))
	for _, c := range spec.Containers {
		containers = append(containers, containerFromSpec(ref, c, false))
	}
	for _, c := range containers {
		nodes = append(nodes, Node{Kind: KindContainer, Container: c})
	}
	for _, c := range containers {
		nodes = append(nodes, Node{Kind: KindFolder, Entry: t.RootFolder(ref, c)})
	}
	return nodes
}

// RootFolder returns the synthetic root folder of container c. Its mount set
// holds c's mount paths only.
func (t *Tree) RootFolder(ref PodRef, c *Container) *Entry {
	return &Entry{
		Pod:       ref,
		Container: c.Name,
		Path:      t.platform.Root(),
		Mounts:    NewMountSet(c.VolumeMounts),
		sep:       t.platform.Separator(),
	}
}

// InitContainers returns the init containers of a pod as container nodes.
// They are not part of Roots; callers may show them separately.
func InitContainers(ref PodRef, pod *corev1.Pod) []Node {
	if pod == nil {
		return nil
	}
	nodes := make([]Node, 0, len(pod.Spec.InitContainers))
	for _, c := range pod.Spec.InitContainers {
		nodes = append(nodes, Node{Kind: KindContainer, Container: containerFromSpec(ref, c, true)})
	}
	return nodes
}

func containerFromSpec(ref PodRef, c corev1.Container, init bool) *Container {
	mounts := make([]VolumeMount, 0, len(c.VolumeMounts))
	for _, m := range c.VolumeMounts {
		mounts = append(mounts, VolumeMount{
			Name:      m.Name,
			MountPath: m.MountPath,
			ReadOnly:  m.ReadOnly,
			SubPath:   m.SubPath,
		})
	}
	return &Container{Pod: ref, Name: c.Name, Image: c.Image, Init: init, VolumeMounts: mounts}
}

// Children returns the children of n. Containers yield their volume mounts,
// folders are listed remotely, every other kind is a leaf.
func (t *Tree) Children(ctx context.Context, n Node) []Node {
	switch n.Kind {
	case KindContainer:
		if n.Container == nil {
			return []Node{}
		}
		nodes := make([]Node, 0, len(n.Container.VolumeMounts))
		for i := range n.Container.VolumeMounts {
			m := n.Container.VolumeMounts[i]
			nodes = append(nodes, Node{Kind: KindVolumeMount, Mount: &m})
		}
		return nodes
	case KindFolder:
		if n.Entry == nil {
			return []Node{}
		}
		return t.ListChildren(ctx, n.Entry)
	}
	return []Node{}
}

// ListChildren runs one remote listing of folder and parses it into child
// nodes in listing order. A line ending in a separator becomes a folder,
// any other non-blank line a file. On failure the error is reported once and
// an empty slice returned.
func (t *Tree) ListChildren(ctx context.Context, folder *Entry) []Node {
	if folder.sep == "" {
		folder.sep = t.platform.Separator()
	}
	dir := folder.childPrefix()
	command := t.platform.ListCommand(dir)
	target := folder.Target()

	t.logger.DebugContext(ctx, "listing container folder",
		logging.Namespace(target.Namespace), logging.Pod(target.Pod),
		logging.Container(target.Container), logging.Path(dir))

	start := time.Now()
	res, err := run(ctx, t.exec, target, command)
	if t.observer != nil {
		t.observer.ObserveExec(ctx, OpList, target.Namespace, time.Since(start), err)
	}
	if err != nil {
		report(ctx, t.reporter, err)
		return []Node{}
	}
	return parseListing(folder, dir, res.Stdout)
}

func parseListing(parent *Entry, dir, stdout string) []Node {
	lines := strings.Split(stdout, "\n")
	nodes := make([]Node, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		node := Node{Kind: KindFile}
		if isDirLine(line) {
			node = Node{Kind: KindFolder, Entry: newFolder(parent.Pod, parent.Container, dir, line, parent.sep, parent.Mounts)}
		} else {
			node.Entry = newFile(parent.Pod, parent.Container, dir, line, parent.Mounts)
		}
		// A bare marker such as "/" or "@" names nothing. As a folder it
		// would look like the container root.
		if node.Entry.Name == "" {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// Folder returns a folder entry for an absolute directory path inside a
// container. It lets callers resume browsing without walking from the root.
// The mount set is taken from the container's spec when mounts is nil.
func (t *Tree) Folder(ref PodRef, container, dir string, mounts MountSet) *Entry {
	sep := t.platform.Separator()
	root := t.platform.Root()
	if dir == "" || dir == root || dir+sep == root {
		return &Entry{Pod: ref, Container: container, Path: root, Mounts: mounts, sep: sep}
	}
	dir = strings.TrimRight(dir, `/\`)
	i := strings.LastIndex(dir, sep)
	if i < 0 {
		return &Entry{Pod: ref, Container: container, Path: root, Name: dir, Mounts: mounts, sep: sep}
	}
	return &Entry{Pod: ref, Container: container, Path: dir[:i+1], Name: dir[i+1:], Mounts: mounts, sep: sep}
}

// File returns a file entry for an absolute file path inside a container,
// split at the last separator into Path and Name.
func (t *Tree) File(ref PodRef, container, path string, mounts MountSet) *Entry {
	sep := t.platform.Separator()
	i := strings.LastIndex(path, sep)
	if i < 0 {
		return &Entry{Pod: ref, Container: container, Path: t.platform.Root(), Name: path, Mounts: mounts}
	}
	return &Entry{Pod: ref, Container: container, Path: path[:i+1], Name: path[i+1:], Mounts: mounts}
}

// ContainerMounts looks up the mount set of a container in the pod spec. It
// returns an empty set when the pod or container cannot be found.
func (t *Tree) ContainerMounts(ctx context.Context, ref PodRef, container string) MountSet {
	if ref.Namespace == "" {
		ref.Namespace = DefaultNamespace
	}
	pod, err := t.pods.GetPod(ctx, ref.Namespace, ref.Name)
	if err != nil || pod == nil {
		return MountSet{}
	}
	for _, c := range pod.Spec.Containers {
		if container == "" || c.Name == container {
			return NewMountSet(containerFromSpec(ref, c, false).VolumeMounts)
		}
	}
	return MountSet{}
}
