package k8s

import (
	"context"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/version"
)

// Client defines the Kubernetes operations needed to browse container
// filesystems. Every operation accepts a kubeContext; an empty value selects
// the client's current context.
type Client interface {
	// Context Management Operations
	ContextManager

	// Pod Operations
	PodManager

	// Cluster Operations
	ClusterManager
}

// ContextManager handles Kubernetes context operations.
type ContextManager interface {
	// ListContexts returns all available Kubernetes contexts.
	ListContexts(ctx context.Context) ([]ContextInfo, error)

	// GetCurrentContext returns the currently active context.
	GetCurrentContext(ctx context.Context) (*ContextInfo, error)

	// SwitchContext changes the active Kubernetes context.
	SwitchContext(ctx context.Context, contextName string) error
}

// PodManager handles pod-specific operations.
type PodManager interface {
	// GetPod returns the full specification of a pod.
	GetPod(ctx context.Context, kubeContext, namespace, podName string) (*corev1.Pod, error)

	// ListPods returns a summary of the pods in a namespace.
	ListPods(ctx context.Context, kubeContext, namespace string, opts ListOptions) ([]PodSummary, error)

	// Exec executes a command inside a pod container and waits for it to
	// exit. A non-zero exit status is returned in the result, not as an error.
	Exec(ctx context.Context, kubeContext, namespace, podName, containerName string, command []string, opts ExecOptions) (*ExecResult, error)
}

// ClusterManager handles cluster-level operations.
type ClusterManager interface {
	// ServerVersion returns the version reported by the API server.
	ServerVersion(ctx context.Context, kubeContext string) (*version.Info, error)
}

// ContextInfo represents information about a Kubernetes context.
type ContextInfo struct {
	Name      string `json:"name"`
	Cluster   string `json:"cluster"`
	User      string `json:"user"`
	Namespace string `json:"namespace"`
	Current   bool   `json:"current"`
}

// ListOptions provides configuration for list operations.
type ListOptions struct {
	LabelSelector string `json:"labelSelector,omitempty"`
	FieldSelector string `json:"fieldSelector,omitempty"`
	Limit         int64  `json:"limit,omitempty"`
}

// PodSummary is the subset of a pod shown when choosing what to browse.
type PodSummary struct {
	Name           string    `json:"name"`
	Namespace      string    `json:"namespace"`
	Phase          string    `json:"phase"`
	Node           string    `json:"node,omitempty"`
	Containers     []string  `json:"containers"`
	InitContainers []string  `json:"initContainers,omitempty"`
	Created        time.Time `json:"created"`
}

// ExecOptions configures command execution in pods. Stdout and Stderr are
// captured into the result when left nil.
type ExecOptions struct {
	Stdin  io.Reader `json:"-"`
	Stdout io.Writer `json:"-"`
	Stderr io.Writer `json:"-"`
	TTY    bool      `json:"tty,omitempty"`
}

// ExecResult contains the result of command execution.
type ExecResult struct {
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
}
