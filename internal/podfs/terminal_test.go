package podfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalCommands(t *testing.T) {
	pod := PodRef{Name: "p1", Namespace: "default"}
	file := &Entry{Pod: pod, Container: "c1", Path: "/var/log/", Name: "app.log"}

	assert.Equal(t, "kubectl exec -it p1 -c c1 --namespace default -- sh",
		ShellCommand("", Linux, &Container{Pod: pod, Name: "c1"}))
	assert.Equal(t, "oc exec -it p1 -c c1 --namespace default -- powershell",
		ShellCommand("oc", Windows, &Container{Pod: pod, Name: "c1"}))
	assert.Equal(t, "kubectl cp default/p1:/var/log/app.log app.log -c c1",
		CopyFromCommand("", file))
	assert.Equal(t, "kubectl exec -it p1 -c c1 --namespace default -- tail -f /var/log/app.log",
		TailCommand("kubectl", file))
}
