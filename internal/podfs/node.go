package podfs

import (
	"encoding/json"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	KindVolume Kind = iota
	KindVolumeMount
	KindContainer
	KindFolder
	KindFile
)

var kindNames = map[Kind]string{
	KindVolume:      "volume",
	KindVolumeMount: "volumeMount",
	KindContainer:   "container",
	KindFolder:      "folder",
	KindFile:        "file",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// PodRef identifies the pod being browsed.
type PodRef struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// Volume is a pod volume. It has no children.
type Volume struct {
	Name string        `json:"name"`
	Spec corev1.Volume `json:"spec"`
}

// VolumeMount is a mount declared by a container.
type VolumeMount struct {
	Name      string `json:"name"`
	MountPath string `json:"mountPath"`
	ReadOnly  bool   `json:"readOnly,omitempty"`
	SubPath   string `json:"subPath,omitempty"`
}

// Container is a container of the browsed pod.
type Container struct {
	Pod          PodRef        `json:"pod"`
	Name         string        `json:"name"`
	Image        string        `json:"image"`
	Init         bool          `json:"init,omitempty"`
	VolumeMounts []VolumeMount `json:"volumeMounts,omitempty"`
}

// MountSet holds the mount paths of one container. It is shared read-only by
// every entry created under that container's root.
type MountSet map[string]struct{}

// NewMountSet builds a set from the mount paths of mounts.
func NewMountSet(mounts []VolumeMount) MountSet {
	set := make(MountSet, len(mounts))
	for _, m := range mounts {
		set[m.MountPath] = struct{}{}
	}
	return set
}

// Has reports an exact string match; paths are not normalized.
func (s MountSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Entry is a folder or file inside a container filesystem.
//
// For folders Path always ends with the platform separator and Name never
// does; the root folder has an empty Name. For files Name never carries the
// listing decorations '@' or '*'.
type Entry struct {
	Pod       PodRef   `json:"pod"`
	Container string   `json:"container"`
	Path      string   `json:"path"`
	Name      string   `json:"name"`
	Mounts    MountSet `json:"-"`

	sep string
}

// FullPath is Path+Name; for the root folder it is the root path itself.
func (e *Entry) FullPath() string {
	return e.Path + e.Name
}

// IsRoot reports whether e is a container's synthetic root folder.
func (e *Entry) IsRoot() bool {
	return e.Name == ""
}

// childPrefix is the Path given to the children of folder e.
func (e *Entry) childPrefix() string {
	if e.IsRoot() {
		return e.Path
	}
	return e.FullPath() + e.sep
}

// Target returns the container e lives in.
func (e *Entry) Target() Target {
	return Target{Pod: e.Pod.Name, Namespace: e.Pod.Namespace, Container: e.Container}
}

// Node is one element of the container filesystem tree. Exactly one payload
// field is set, selected by Kind.
type Node struct {
	Kind      Kind         `json:"kind"`
	Volume    *Volume      `json:"volume,omitempty"`
	Mount     *VolumeMount `json:"mount,omitempty"`
	Container *Container   `json:"container,omitempty"`
	Entry     *Entry       `json:"entry,omitempty"`
}

// IsFile reports whether n is a file node.
func (n Node) IsFile() bool {
	return n.Kind == KindFile
}

// Descriptor is the display information for a node.
type Descriptor struct {
	Label        string `json:"label"`
	Tooltip      string `json:"tooltip,omitempty"`
	Expandable   bool   `json:"expandable"`
	ContextValue string `json:"contextValue"`
	Icon         string `json:"icon,omitempty"`
}

// Context values attached to descriptors so hosts can bind commands per kind.
const (
	ContextVolume      = "volumenode"
	ContextVolumeMount = "volumemountnode"
	ContextContainer   = "containernode"
	ContextFolder      = "containerfoldernode"
	ContextFile        = "containerfilenode"
)

// MountedSuffix is appended to labels of entries that sit on a mount point.
const MountedSuffix = " [Mounted]"

// Describe computes the display descriptor for n.
func Describe(n Node) Descriptor {
	switch n.Kind {
	case KindVolume:
		return Descriptor{
			Label:        "Volume: " + n.Volume.Name,
			Tooltip:      toJSON(n.Volume.Spec),
			ContextValue: ContextVolume,
		}
	case KindVolumeMount:
		return Descriptor{
			Label:        "Volume mount: " + n.Mount.Name,
			Tooltip:      toJSON(n.Mount),
			ContextValue: ContextVolumeMount,
		}
	case KindContainer:
		label := containerLabel(n.Container)
		return Descriptor{
			Label:        label,
			Tooltip:      label,
			Expandable:   len(n.Container.VolumeMounts) > 0,
			ContextValue: ContextContainer,
		}
	case KindFolder:
		label := BuildLabel(n)
		return Descriptor{
			Label:        label,
			Tooltip:      label,
			Expandable:   true,
			ContextValue: ContextFolder,
			Icon:         "folder",
		}
	case KindFile:
		label := BuildLabel(n)
		return Descriptor{
			Label:        label,
			Tooltip:      n.Entry.Path + label,
			ContextValue: ContextFile,
			Icon:         "file",
		}
	}
	return Descriptor{Label: n.Kind.String()}
}

// BuildLabel returns the label of a folder or file node. The root folder is
// labelled "<container>:<root>". A " [Mounted]" suffix is added when the
// entry's full path exactly matches one of its container's mount paths.
func BuildLabel(n Node) string {
	e := n.Entry
	if e == nil {
		return ""
	}
	label := e.Name
	if n.Kind == KindFolder && e.IsRoot() {
		label = e.Path
		if e.Container != "" {
			label = e.Container + ":" + e.Path
		}
	}
	if e.Mounts.Has(e.FullPath()) {
		label += MountedSuffix
	}
	return label
}

func containerLabel(c *Container) string {
	prefix := "Container:"
	if c.Init {
		prefix = "Init Container:"
	}
	return fmt.Sprintf("%s %s ( %s )", prefix, c.Name, c.Image)
}

func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// newFolder builds a folder child of parentPath from a raw listing line.
func newFolder(pod PodRef, container, parentPath, line, sep string, mounts MountSet) *Entry {
	name := strings.TrimRight(line, `/\`)
	return &Entry{Pod: pod, Container: container, Path: parentPath, Name: name, Mounts: mounts, sep: sep}
}

// newFile builds a file child of parentPath from a raw listing line. A
// trailing symlink marker is removed first, then an executable marker.
func newFile(pod PodRef, container, parentPath, line string, mounts MountSet) *Entry {
	name := strings.TrimSuffix(line, "@")
	name = strings.TrimSuffix(name, "*")
	return &Entry{Pod: pod, Container: container, Path: parentPath, Name: name, Mounts: mounts}
}
