package podfs

import (
	"context"
	"strings"
	"sync"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// fakeExecutor returns canned results keyed by the joined command line.
type fakeExecutor struct {
	mu      sync.Mutex
	results map[string]*ExecResult
	errs    map[string]error
	calls   []fakeCall
}

type fakeCall struct {
	Target  Target
	Command []string
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{results: map[string]*ExecResult{}, errs: map[string]error{}}
}

func (f *fakeExecutor) on(command string, res *ExecResult) *fakeExecutor {
	f.results[command] = res
	return f
}

func (f *fakeExecutor) fail(command string, err error) *fakeExecutor {
	f.errs[command] = err
	return f
}

func (f *fakeExecutor) Exec(_ context.Context, target Target, command []string) (*ExecResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{Target: target, Command: append([]string{}, command...)})
	key := strings.Join(command, " ")
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.results[key], nil
}

func (f *fakeExecutor) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall{}, f.calls...)
}

func joinCmd(command []string) string {
	return strings.Join(command, " ")
}

func ok(stdout string) *ExecResult {
	return &ExecResult{Stdout: stdout}
}

func podFixture() *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "p1", Namespace: "default"},
		Spec: corev1.PodSpec{
			Volumes: []corev1.Volume{
				{Name: "data", VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}},
				{Name: "config", VolumeSource: corev1.VolumeSource{ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: "app-config"},
				}}},
			},
			InitContainers: []corev1.Container{{Name: "init", Image: "busybox"}},
			Containers: []corev1.Container{
				{
					Name:  "c1",
					Image: "nginx:1.27",
					VolumeMounts: []corev1.VolumeMount{
						{Name: "data", MountPath: "/data"},
						{Name: "config", MountPath: "/etc/app", ReadOnly: true},
					},
				},
				{
					Name:         "c2",
					Image:        "redis:7",
					VolumeMounts: []corev1.VolumeMount{{Name: "data", MountPath: "/var/lib/redis"}},
				},
				{Name: "c3", Image: "busybox"},
			},
		},
	}
}

func podGetterFor(pods ...*corev1.Pod) PodGetter {
	return PodGetterFunc(func(_ context.Context, namespace, name string) (*corev1.Pod, error) {
		for _, p := range pods {
			if p.Namespace == namespace && p.Name == name {
				return p, nil
			}
		}
		return nil, errNotFound{namespace: namespace, name: name}
	})
}

type errNotFound struct{ namespace, name string }

func (e errNotFound) Error() string {
	return `pods "` + e.name + `" not found in namespace "` + e.namespace + `"`
}

func newTestTree(exec Executor, reporter Reporter, opts ...Option) *Tree {
	opts = append([]Option{WithReporterSink(reporter)}, opts...)
	tree, err := NewTree(podGetterFor(podFixture()), exec, opts...)
	if err != nil {
		panic(err)
	}
	return tree
}
