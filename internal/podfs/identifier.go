package podfs

import (
	"fmt"
	"strings"
)

// Scheme selects which read command resolves a document.
type Scheme string

const (
	// SchemeView prints file contents.
	SchemeView Scheme = "view"
	// SchemeFind lists a folder recursively.
	SchemeFind Scheme = "find"
	// SchemeListDetailed prints a long listing of a folder.
	SchemeListDetailed Scheme = "list-detailed"
)

// Schemes lists every supported scheme.
var Schemes = []Scheme{SchemeView, SchemeFind, SchemeListDetailed}

// Valid reports whether s is one of the supported schemes.
func (s Scheme) Valid() bool {
	switch s {
	case SchemeView, SchemeFind, SchemeListDetailed:
		return true
	}
	return false
}

// Identifier addresses a read-only document backed by a file or folder in a
// container. It is only flattened to a string at the host boundary.
type Identifier struct {
	Scheme    Scheme
	Pod       string
	Namespace string
	Container string
	Path      string
}

// Target returns the container the document is read from.
func (id Identifier) Target() Target {
	return Target{Pod: id.Pod, Namespace: id.Namespace, Container: id.Container}
}

// String encodes the identifier as scheme:pod:namespace:container:path.
func (id Identifier) String() string {
	return strings.Join([]string{string(id.Scheme), id.Pod, id.Namespace, id.Container, id.Path}, ":")
}

// Validate checks that the identifier can be encoded without ambiguity.
// Only the path may contain colons; it is always the last field.
func (id Identifier) Validate() error {
	if !id.Scheme.Valid() {
		return fmt.Errorf("%w: unknown scheme %q", ErrInvalidIdentifier, id.Scheme)
	}
	if id.Pod == "" || id.Namespace == "" || id.Container == "" {
		return fmt.Errorf("%w: pod, namespace and container are required", ErrInvalidIdentifier)
	}
	if id.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidIdentifier)
	}
	for name, v := range map[string]string{"pod": id.Pod, "namespace": id.Namespace, "container": id.Container} {
		if strings.Contains(v, ":") {
			return fmt.Errorf("%w: %s %q contains ':'", ErrInvalidIdentifier, name, v)
		}
	}
	return nil
}

// ParseIdentifier decodes scheme:pod:namespace:container:path. The path
// keeps any further colons, so Windows drive paths survive a round trip.
func ParseIdentifier(s string) (Identifier, error) {
	parts := strings.SplitN(s, ":", 5)
	if len(parts) != 5 {
		return Identifier{}, fmt.Errorf("%w: %q has %d fields, want 5", ErrInvalidIdentifier, s, len(parts))
	}
	id := Identifier{
		Scheme:    Scheme(parts[0]),
		Pod:       parts[1],
		Namespace: parts[2],
		Container: parts[3],
		Path:      parts[4],
	}
	if err := id.Validate(); err != nil {
		return Identifier{}, err
	}
	return id, nil
}

// DocumentFor returns the identifier for reading entry with the given scheme.
func DocumentFor(scheme Scheme, e *Entry) Identifier {
	return Identifier{
		Scheme:    scheme,
		Pod:       e.Pod.Name,
		Namespace: e.Pod.Namespace,
		Container: e.Container,
		Path:      e.FullPath(),
	}
}
