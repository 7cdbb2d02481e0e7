package k8s

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/version"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
	utilexec "k8s.io/client-go/util/exec"
)

// PodManager implementation

// GetPod returns the full specification of a pod.
func (c *kubernetesClient) GetPod(ctx context.Context, kubeContext, namespace, podName string) (*corev1.Pod, error) {
	if err := c.isNamespaceRestricted(namespace); err != nil {
		return nil, err
	}

	c.logOperation("get-pod", kubeContext, namespace, podName)

	clientset, err := c.getClientset(kubeContext)
	if err != nil {
		return nil, err
	}

	pod, err := clientset.CoreV1().Pods(namespace).Get(ctx, podName, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get pod %s/%s: %w", namespace, podName, err)
	}
	return pod, nil
}

// ListPods returns a summary of the pods in a namespace. An empty namespace
// lists all namespaces.
func (c *kubernetesClient) ListPods(ctx context.Context, kubeContext, namespace string, opts ListOptions) ([]PodSummary, error) {
	if namespace != "" {
		if err := c.isNamespaceRestricted(namespace); err != nil {
			return nil, err
		}
	}

	c.logOperation("list-pods", kubeContext, namespace, "")

	clientset, err := c.getClientset(kubeContext)
	if err != nil {
		return nil, err
	}

	list, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: opts.LabelSelector,
		FieldSelector: opts.FieldSelector,
		Limit:         opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods in namespace %q: %w", namespace, err)
	}

	pods := make([]PodSummary, 0, len(list.Items))
	for i := range list.Items {
		p := &list.Items[i]
		if c.isNamespaceRestricted(p.Namespace) != nil {
			continue
		}
		pods = append(pods, summarizePod(p))
	}
	return pods, nil
}

func summarizePod(p *corev1.Pod) PodSummary {
	s := PodSummary{
		Name:      p.Name,
		Namespace: p.Namespace,
		Phase:     string(p.Status.Phase),
		Node:      p.Spec.NodeName,
		Created:   p.CreationTimestamp.Time,
	}
	for _, ctr := range p.Spec.Containers {
		s.Containers = append(s.Containers, ctr.Name)
	}
	for _, ctr := range p.Spec.InitContainers {
		s.InitContainers = append(s.InitContainers, ctr.Name)
	}
	return s
}

// Exec executes a command inside a pod container. Output streams that are
// not supplied in opts are captured into the result. A command that ran and
// exited non-zero is reported through ExitCode with a nil error.
func (c *kubernetesClient) Exec(ctx context.Context, kubeContext, namespace, podName, containerName string, command []string, opts ExecOptions) (*ExecResult, error) {
	if err := c.isNamespaceRestricted(namespace); err != nil {
		return nil, err
	}

	c.logOperation("exec", kubeContext, namespace, podName)

	clientset, err := c.getClientset(kubeContext)
	if err != nil {
		return nil, err
	}

	restConfig, err := c.getRestConfig(kubeContext)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	outW := io.Writer(&stdout)
	if opts.Stdout != nil {
		outW = io.MultiWriter(opts.Stdout, &stdout)
	}
	errW := io.Writer(&stderr)
	if opts.Stderr != nil {
		errW = io.MultiWriter(opts.Stderr, &stderr)
	}

	execReq := clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: containerName,
			Command:   command,
			Stdin:     opts.Stdin != nil,
			Stdout:    true,
			Stderr:    !opts.TTY,
			TTY:       opts.TTY,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(restConfig, http.MethodPost, execReq.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	streamOpts := remotecommand.StreamOptions{
		Stdin:  opts.Stdin,
		Stdout: outW,
		Tty:    opts.TTY,
	}
	if !opts.TTY {
		streamOpts.Stderr = errW
	}

	result := &ExecResult{}
	err = exec.StreamWithContext(ctx, streamOpts)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	if err != nil {
		var exitErr utilexec.ExitError
		if errors.As(err, &exitErr) && exitErr.Exited() {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		return nil, fmt.Errorf("failed to execute command in pod %s/%s: %w", namespace, podName, err)
	}

	return result, nil
}

// ClusterManager implementation

// ServerVersion returns the version reported by the API server.
func (c *kubernetesClient) ServerVersion(ctx context.Context, kubeContext string) (*version.Info, error) {
	c.logOperation("server-version", kubeContext, "", "")

	clientset, err := c.getClientset(kubeContext)
	if err != nil {
		return nil, err
	}

	info, err := clientset.Discovery().ServerVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get server version: %w", err)
	}
	return info, nil
}
