// Package testdata provides mock implementations for testing the tool packages.
package testdata

import (
	"context"
	"fmt"
	"strings"
	"sync"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/version"

	"github.com/giantswarm/mcp-podfs/internal/k8s"
)

// Compile-time interface compliance check.
var _ k8s.Client = (*MockK8sClient)(nil)

// ExecCall records one Exec invocation.
type ExecCall struct {
	KubeContext string
	Namespace   string
	Pod         string
	Container   string
	Command     []string
}

// MockK8sClient implements k8s.Client for testing. Pods are served from
// Pods keyed by "namespace/name"; Exec answers from ExecResults keyed by the
// space-joined command line and fails with ExecErr otherwise.
type MockK8sClient struct {
	Pods        map[string]*corev1.Pod
	ExecResults map[string]*k8s.ExecResult
	ExecErr     error
	Contexts    []k8s.ContextInfo

	mu        sync.Mutex
	execCalls []ExecCall
	switched  string
}

// NewMockK8sClient returns a client serving pods.
func NewMockK8sClient(pods ...*corev1.Pod) *MockK8sClient {
	m := &MockK8sClient{
		Pods:        map[string]*corev1.Pod{},
		ExecResults: map[string]*k8s.ExecResult{},
		ExecErr:     fmt.Errorf("command terminated with exit code 1"),
		Contexts: []k8s.ContextInfo{
			{Name: "kind-dev", Cluster: "kind-dev", User: "kind-dev", Namespace: "default", Current: true},
			{Name: "prod", Cluster: "prod", User: "admin"},
		},
	}
	for _, p := range pods {
		m.Pods[p.Namespace+"/"+p.Name] = p
	}
	return m
}

// OnExec registers the stdout returned for a command line.
func (m *MockK8sClient) OnExec(stdout string, command ...string) *MockK8sClient {
	m.ExecResults[strings.Join(command, " ")] = &k8s.ExecResult{Stdout: stdout}
	return m
}

// ExecCalls returns the recorded Exec invocations.
func (m *MockK8sClient) ExecCalls() []ExecCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ExecCall, len(m.execCalls))
	copy(out, m.execCalls)
	return out
}

// ListContexts implements k8s.ContextManager.
func (m *MockK8sClient) ListContexts(_ context.Context) ([]k8s.ContextInfo, error) {
	return m.Contexts, nil
}

// GetCurrentContext implements k8s.ContextManager.
func (m *MockK8sClient) GetCurrentContext(_ context.Context) (*k8s.ContextInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Contexts {
		if (m.switched == "" && c.Current) || c.Name == m.switched {
			c.Current = true
			return &c, nil
		}
	}
	return nil, fmt.Errorf("no current context")
}

// SwitchContext implements k8s.ContextManager.
func (m *MockK8sClient) SwitchContext(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Contexts {
		if c.Name == name {
			m.switched = name
			return nil
		}
	}
	return fmt.Errorf("context %q does not exist", name)
}

// GetPod implements k8s.PodManager.
func (m *MockK8sClient) GetPod(_ context.Context, _, namespace, name string) (*corev1.Pod, error) {
	if p, ok := m.Pods[namespace+"/"+name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("pods %q not found", name)
}

// ListPods implements k8s.PodManager.
func (m *MockK8sClient) ListPods(_ context.Context, _, namespace string, _ k8s.ListOptions) ([]k8s.PodSummary, error) {
	out := []k8s.PodSummary{}
	for _, p := range m.Pods {
		if namespace != "" && p.Namespace != namespace {
			continue
		}
		s := k8s.PodSummary{Name: p.Name, Namespace: p.Namespace, Phase: string(p.Status.Phase)}
		for _, c := range p.Spec.Containers {
			s.Containers = append(s.Containers, c.Name)
		}
		out = append(out, s)
	}
	return out, nil
}

// Exec implements k8s.PodManager.
func (m *MockK8sClient) Exec(_ context.Context, kubeContext, namespace, pod, container string, command []string, _ k8s.ExecOptions) (*k8s.ExecResult, error) {
	m.mu.Lock()
	m.execCalls = append(m.execCalls, ExecCall{
		KubeContext: kubeContext,
		Namespace:   namespace,
		Pod:         pod,
		Container:   container,
		Command:     command,
	})
	m.mu.Unlock()

	if res, ok := m.ExecResults[strings.Join(command, " ")]; ok {
		return res, nil
	}
	return nil, m.ExecErr
}

// ServerVersion implements k8s.ClusterManager.
func (m *MockK8sClient) ServerVersion(_ context.Context, _ string) (*version.Info, error) {
	return &version.Info{GitVersion: "v1.31.0"}, nil
}

// WebPod returns a pod "web-0" in "default" with an nginx container that
// mounts the "data" volume at /data, and an init container.
func WebPod() *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "web-0", Namespace: "default"},
		Spec: corev1.PodSpec{
			Volumes: []corev1.Volume{{
				Name:         "data",
				VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}},
			}},
			InitContainers: []corev1.Container{{Name: "init-perms", Image: "busybox:1.36"}},
			Containers: []corev1.Container{{
				Name:         "nginx",
				Image:        "nginx:1.27",
				VolumeMounts: []corev1.VolumeMount{{Name: "data", MountPath: "/data"}},
			}},
		},
		Status: corev1.PodStatus{Phase: corev1.PodRunning},
	}
}
