package podfs

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
	"github.com/giantswarm/mcp-podfs/internal/k8s"
)

// Target identifies the container a remote command runs in.
type Target struct {
	Pod       string
	Namespace string
	Container string
}

// String renders the target as namespace/pod[container].
func (t Target) String() string {
	if t.Container == "" {
		return t.Namespace + "/" + t.Pod
	}
	return fmt.Sprintf("%s/%s[%s]", t.Namespace, t.Pod, t.Container)
}

// ExecResult is the captured outcome of a remote command.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs a single command inside a container and captures its output.
// A nil result or a non-nil error both signal that the command could not be run.
type Executor interface {
	Exec(ctx context.Context, target Target, command []string) (*ExecResult, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, target Target, command []string) (*ExecResult, error)

// Exec calls f.
func (f ExecutorFunc) Exec(ctx context.Context, target Target, command []string) (*ExecResult, error) {
	return f(ctx, target, command)
}

// KubeExecutor runs commands through the Kubernetes exec subresource.
type KubeExecutor struct {
	Pods        k8s.PodManager
	KubeContext string
}

// NewKubeExecutor returns an Executor backed by the given pod manager.
// An empty kubeContext selects the client's current context.
func NewKubeExecutor(pods k8s.PodManager, kubeContext string) *KubeExecutor {
	return &KubeExecutor{Pods: pods, KubeContext: kubeContext}
}

// Exec implements Executor. Each call is traced as exec.<program>.
func (e *KubeExecutor) Exec(ctx context.Context, target Target, command []string) (*ExecResult, error) {
	program := "unknown"
	if len(command) > 0 {
		program = command[0]
	}
	ctx, span := instrumentation.StartExecSpan(ctx, program, target.Namespace, target.Pod, target.Container)
	defer span.End()

	res, err := e.Pods.Exec(ctx, e.KubeContext, target.Namespace, target.Pod, target.Container, command, k8s.ExecOptions{})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrExitCode, res.ExitCode))
	return &ExecResult{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}, nil
}

// run executes command against target and converts every failure mode into a
// *CommandError so callers have a single path to report.
func run(ctx context.Context, exec Executor, target Target, command []string) (*ExecResult, error) {
	cmdText := strings.Join(command, " ")
	res, err := exec.Exec(ctx, target, command)
	if err != nil {
		return nil, &CommandError{Target: target, Command: cmdText, ExitCode: -1, Err: err}
	}
	if res == nil {
		return nil, &CommandError{Target: target, Command: cmdText, ExitCode: -1, Err: fmt.Errorf("no result from executor")}
	}
	if res.ExitCode != 0 {
		return res, &CommandError{Target: target, Command: cmdText, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}
