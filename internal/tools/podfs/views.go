package podfstools

import (
	"github.com/giantswarm/mcp-podfs/internal/podfs"
	"github.com/giantswarm/mcp-podfs/internal/tools/output"
)

// NodeView is the wire form of a tree node: its display descriptor plus what
// a client needs to expand it or open it as a document.
type NodeView struct {
	Kind podfs.Kind `json:"kind"`
	podfs.Descriptor

	// Container is set for containers, folders and files.
	Container string `json:"container,omitempty"`
	// Path is the absolute path of a folder or file. Pass a folder's Path to
	// container_fs_children to expand it.
	Path string `json:"path,omitempty"`
	// Documents maps each readable scheme to the identifier of the document.
	Documents map[podfs.Scheme]string `json:"documents,omitempty"`
}

// RootsResponse is returned by container_fs_roots.
type RootsResponse struct {
	Pod            podfs.PodRef `json:"pod"`
	Roots          []NodeView   `json:"roots"`
	InitContainers []NodeView   `json:"initContainers,omitempty"`
}

// ChildrenResponse is returned by container_fs_children.
type ChildrenResponse struct {
	Folder     NodeView                  `json:"folder"`
	Children   []NodeView                `json:"children"`
	Truncation *output.TruncationWarning `json:"truncation,omitempty"`
}

// TerminalCommandResponse is returned by container_terminal_command.
type TerminalCommandResponse struct {
	Action  string `json:"action"`
	Command string `json:"command"`
}

// NewNodeView describes n for clients.
func NewNodeView(n podfs.Node) NodeView {
	v := NodeView{Kind: n.Kind, Descriptor: podfs.Describe(n)}
	switch n.Kind {
	case podfs.KindContainer:
		v.Container = n.Container.Name
	case podfs.KindFolder:
		v.Container = n.Entry.Container
		v.Path = n.Entry.FullPath()
		v.Documents = documents(n.Entry, podfs.SchemeFind, podfs.SchemeListDetailed)
	case podfs.KindFile:
		v.Container = n.Entry.Container
		v.Path = n.Entry.FullPath()
		v.Documents = documents(n.Entry, podfs.SchemeView)
	}
	return v
}

// NewNodeViews describes each of nodes.
func NewNodeViews(nodes []podfs.Node) []NodeView {
	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, NewNodeView(n))
	}
	return views
}

func documents(e *podfs.Entry, schemes ...podfs.Scheme) map[podfs.Scheme]string {
	docs := make(map[podfs.Scheme]string, len(schemes))
	for _, s := range schemes {
		docs[s] = podfs.DocumentFor(s, e).String()
	}
	return docs
}
