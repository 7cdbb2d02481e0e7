package podfs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootEntry(container string, mounts ...string) *Entry {
	set := MountSet{}
	for _, m := range mounts {
		set[m] = struct{}{}
	}
	return &Entry{
		Pod:       PodRef{Name: "p1", Namespace: "default"},
		Container: container,
		Path:      "/",
		Mounts:    set,
		sep:       "/",
	}
}

func TestTree_Roots(t *testing.T) {
	ctx := context.Background()
	reporter := &Collector{}
	tree := newTestTree(newFakeExecutor(), reporter)

	nodes := tree.Roots(ctx, PodRef{Name: "p1", Namespace: "default"})
	require.Len(t, nodes, 2+3+3)
	assert.Zero(t, reporter.Len())

	kinds := make([]Kind, 0, len(nodes))
	for _, n := range nodes {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []Kind{
		KindVolume, KindVolume,
		KindContainer, KindContainer, KindContainer,
		KindFolder, KindFolder, KindFolder,
	}, kinds)

	assert.Equal(t, "data", nodes[0].Volume.Name)
	assert.Equal(t, "config", nodes[1].Volume.Name)
	assert.Equal(t, "c1", nodes[2].Container.Name)
	assert.Equal(t, "c2", nodes[3].Container.Name)
	assert.Equal(t, "c3", nodes[4].Container.Name)

	t.Run("root folders carry only their own mounts", func(t *testing.T) {
		c1, c2, c3 := nodes[5].Entry, nodes[6].Entry, nodes[7].Entry
		assert.Equal(t, "c1", c1.Container)
		assert.Equal(t, MountSet{"/data": {}, "/etc/app": {}}, c1.Mounts)
		assert.Equal(t, MountSet{"/var/lib/redis": {}}, c2.Mounts)
		assert.Empty(t, c3.Mounts)

		for _, e := range []*Entry{c1, c2, c3} {
			assert.Equal(t, "/", e.Path)
			assert.Empty(t, e.Name)
			assert.True(t, e.IsRoot())
		}
	})

	t.Run("init containers are not roots", func(t *testing.T) {
		for _, n := range nodes {
			if n.Kind == KindContainer {
				assert.False(t, n.Container.Init)
				assert.NotEqual(t, "init", n.Container.Name)
			}
		}
	})

	t.Run("empty namespace defaults", func(t *testing.T) {
		nodes := tree.Roots(ctx, PodRef{Name: "p1"})
		assert.Len(t, nodes, 8)
	})
}

func TestTree_RootsFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("pod query error", func(t *testing.T) {
		reporter := &Collector{}
		tree := newTestTree(newFakeExecutor(), reporter)

		nodes := tree.Roots(ctx, PodRef{Name: "missing", Namespace: "default"})
		require.NotNil(t, nodes)
		assert.Empty(t, nodes)
		require.Equal(t, 1, reporter.Len())
		assert.ErrorIs(t, reporter.Errors()[0], ErrRemoteCommandFailed)
	})

	t.Run("pod without containers", func(t *testing.T) {
		reporter := &Collector{}
		pod := podFixture()
		pod.Spec.Containers = nil
		tree, err := NewTree(podGetterFor(pod), newFakeExecutor(), WithReporterSink(reporter))
		require.NoError(t, err)

		nodes := tree.Roots(ctx, PodRef{Name: "p1", Namespace: "default"})
		assert.Empty(t, nodes)
		require.Equal(t, 1, reporter.Len())
		assert.ErrorIs(t, reporter.Errors()[0], ErrMalformedResponse)
	})
}

func TestTree_ListChildren(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		stdout    string
		wantKinds []Kind
		wantNames []string
	}{
		{
			name:      "folders and files in listing order",
			stdout:    "bin/\netc/\nhosts\nrun.sh*\nlink@\n",
			wantKinds: []Kind{KindFolder, KindFolder, KindFile, KindFile, KindFile},
			wantNames: []string{"bin", "etc", "hosts", "run.sh", "link"},
		},
		{
			name:      "blank lines and carriage returns",
			stdout:    "a/\r\n\r\n\nb\r\n   \n",
			wantKinds: []Kind{KindFolder, KindFile},
			wantNames: []string{"a", "b"},
		},
		{
			name:      "backslash marks a folder",
			stdout:    "Windows\\\nnotes.txt\n",
			wantKinds: []Kind{KindFolder, KindFile},
			wantNames: []string{"Windows", "notes.txt"},
		},
		{
			name:      "symlink marker then executable marker",
			stdout:    "a@@\nb*@\nc@*\n",
			wantKinds: []Kind{KindFile, KindFile, KindFile},
			wantNames: []string{"a@", "b", "c@"},
		},
		{
			name:      "bare markers are skipped",
			stdout:    "/\n\\\r\n@\n*\nlib/\n",
			wantKinds: []Kind{KindFolder},
			wantNames: []string{"lib"},
		},
		{
			name:      "empty listing",
			stdout:    "",
			wantKinds: []Kind{},
			wantNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecutor().on("ls -F /", ok(tt.stdout))
			reporter := &Collector{}
			tree := newTestTree(exec, reporter)

			nodes := tree.ListChildren(ctx, rootEntry("c1"))
			require.NotNil(t, nodes)

			kinds := []Kind{}
			names := []string{}
			for _, n := range nodes {
				kinds = append(kinds, n.Kind)
				names = append(names, n.Entry.Name)
				assert.Equal(t, "/", n.Entry.Path)
				assert.Equal(t, "c1", n.Entry.Container)
				assert.False(t, n.Entry.IsRoot(), "a child is never the container root")
			}
			assert.Equal(t, tt.wantKinds, kinds)
			assert.Equal(t, tt.wantNames, names)
			assert.Zero(t, reporter.Len())
		})
	}
}

func TestTree_ListChildrenNested(t *testing.T) {
	ctx := context.Background()
	exec := newFakeExecutor().
		on("ls -F /", ok("var/\n")).
		on("ls -F /var/", ok("log/\n")).
		on("ls -F /var/log/", ok("syslog\n"))
	tree := newTestTree(exec, &Collector{})

	root := rootEntry("c1", "/var/log")
	level1 := tree.ListChildren(ctx, root)
	require.Len(t, level1, 1)
	assert.Equal(t, "/var", level1[0].Entry.FullPath())

	level2 := tree.Children(ctx, level1[0])
	require.Len(t, level2, 1)
	assert.Equal(t, "/var/", level2[0].Entry.Path)
	assert.Equal(t, "log", level2[0].Entry.Name)
	assert.Equal(t, "log [Mounted]", BuildLabel(level2[0]))

	level3 := tree.Children(ctx, level2[0])
	require.Len(t, level3, 1)
	assert.Equal(t, KindFile, level3[0].Kind)
	assert.Equal(t, "/var/log/syslog", level3[0].Entry.FullPath())

	calls := exec.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, Target{Pod: "p1", Namespace: "default", Container: "c1"}, calls[2].Target)
}

func TestTree_ListChildrenWindows(t *testing.T) {
	ctx := context.Background()
	exec := newFakeExecutor()
	tree := newTestTree(exec, &Collector{}, WithPlatform(Windows))

	root := tree.RootFolder(PodRef{Name: "p1", Namespace: "default"}, &Container{Name: "win"})
	exec.on(joinCmd(Windows.ListCommand(`C:\`)), ok("Windows\\\r\nboot.ini\r\n"))
	exec.on(joinCmd(Windows.ListCommand(`C:\Windows\`)), ok("System32\\\r\n"))

	nodes := tree.ListChildren(ctx, root)
	require.Len(t, nodes, 2)
	assert.Equal(t, `C:\Windows`, nodes[0].Entry.FullPath())
	assert.Equal(t, `C:\boot.ini`, nodes[1].Entry.FullPath())

	sub := tree.ListChildren(ctx, nodes[0].Entry)
	require.Len(t, sub, 1)
	assert.Equal(t, `C:\Windows\`, sub[0].Entry.Path)
	assert.Equal(t, "System32", sub[0].Entry.Name)
}

func TestTree_ListChildrenFailure(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		exec Executor
	}{
		{
			name: "non-zero exit",
			exec: newFakeExecutor().on("ls -F /", &ExecResult{ExitCode: 1, Stderr: "permission denied"}),
		},
		{
			name: "no result",
			exec: newFakeExecutor(),
		},
		{
			name: "executor error",
			exec: newFakeExecutor().fail("ls -F /", errors.New("connection refused")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reporter := &Collector{}
			tree := newTestTree(tt.exec, reporter)

			nodes := tree.ListChildren(ctx, rootEntry("c1"))
			require.NotNil(t, nodes)
			assert.Empty(t, nodes)

			require.Equal(t, 1, reporter.Len(), "failure is reported exactly once")
			assert.ErrorIs(t, reporter.Errors()[0], ErrRemoteCommandFailed)
		})
	}

	t.Run("stderr is kept", func(t *testing.T) {
		reporter := &Collector{}
		exec := newFakeExecutor().on("ls -F /", &ExecResult{ExitCode: 1, Stderr: "permission denied"})
		tree := newTestTree(exec, reporter)

		tree.ListChildren(ctx, rootEntry("c1"))

		var cmdErr *CommandError
		require.ErrorAs(t, reporter.Errors()[0], &cmdErr)
		assert.Equal(t, 1, cmdErr.ExitCode)
		assert.Equal(t, "ls -F /", cmdErr.Command)
		assert.Contains(t, cmdErr.Error(), "permission denied")
	})

	t.Run("context reporter also receives the failure", func(t *testing.T) {
		base := &Collector{}
		scoped := &Collector{}
		tree := newTestTree(newFakeExecutor(), base)

		tree.ListChildren(WithReporter(ctx, scoped), rootEntry("c1"))
		assert.Equal(t, 1, base.Len())
		assert.Equal(t, 1, scoped.Len())
	})
}

func TestTree_Children(t *testing.T) {
	ctx := context.Background()
	exec := newFakeExecutor()
	tree := newTestTree(exec, &Collector{})

	container := &Container{
		Name: "c1",
		VolumeMounts: []VolumeMount{
			{Name: "data", MountPath: "/data"},
			{Name: "config", MountPath: "/etc/app"},
		},
	}

	t.Run("container yields its mounts in order", func(t *testing.T) {
		nodes := tree.Children(ctx, Node{Kind: KindContainer, Container: container})
		require.Len(t, nodes, 2)
		assert.Equal(t, KindVolumeMount, nodes[0].Kind)
		assert.Equal(t, "data", nodes[0].Mount.Name)
		assert.Equal(t, "config", nodes[1].Mount.Name)
	})

	t.Run("leaves have no children", func(t *testing.T) {
		for _, n := range []Node{
			{Kind: KindVolume, Volume: &Volume{Name: "data"}},
			{Kind: KindVolumeMount, Mount: &VolumeMount{Name: "data"}},
			{Kind: KindFile, Entry: &Entry{Name: "hosts"}},
		} {
			children := tree.Children(ctx, n)
			assert.NotNil(t, children)
			assert.Empty(t, children)
		}
		assert.Empty(t, exec.Calls(), "leaves never run remote commands")
	})
}

func TestTree_Folder(t *testing.T) {
	ref := PodRef{Name: "p1", Namespace: "default"}

	tests := []struct {
		name     string
		platform Platform
		dir      string
		wantPath string
		wantName string
	}{
		{name: "linux root", platform: Linux, dir: "/", wantPath: "/", wantName: ""},
		{name: "linux empty", platform: Linux, dir: "", wantPath: "/", wantName: ""},
		{name: "linux nested", platform: Linux, dir: "/var/log", wantPath: "/var/", wantName: "log"},
		{name: "linux trailing separator", platform: Linux, dir: "/var/log/", wantPath: "/var/", wantName: "log"},
		{name: "windows root", platform: Windows, dir: `C:\`, wantPath: `C:\`, wantName: ""},
		{name: "windows drive", platform: Windows, dir: `C:`, wantPath: `C:\`, wantName: ""},
		{name: "windows nested", platform: Windows, dir: `C:\Windows\System32`, wantPath: `C:\Windows\`, wantName: "System32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := newTestTree(newFakeExecutor(), &Collector{}, WithPlatform(tt.platform))
			e := tree.Folder(ref, "c1", tt.dir, nil)
			assert.Equal(t, tt.wantPath, e.Path)
			assert.Equal(t, tt.wantName, e.Name)
		})
	}
}

func TestTree_File(t *testing.T) {
	ref := PodRef{Name: "p1", Namespace: "default"}

	tests := []struct {
		name     string
		platform Platform
		path     string
		wantPath string
		wantName string
	}{
		{name: "linux nested", platform: Linux, path: "/var/log/app.log", wantPath: "/var/log/", wantName: "app.log"},
		{name: "linux top level", platform: Linux, path: "/hello.txt", wantPath: "/", wantName: "hello.txt"},
		{name: "windows nested", platform: Windows, path: `C:\app\web.config`, wantPath: `C:\app\`, wantName: "web.config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := newTestTree(newFakeExecutor(), &Collector{}, WithPlatform(tt.platform))
			f := tree.File(ref, "c1", tt.path, nil)
			assert.Equal(t, tt.wantPath, f.Path)
			assert.Equal(t, tt.wantName, f.Name)
			assert.Equal(t, tt.path, f.FullPath(), "full path survives the split")
		})
	}
}

func TestTree_ContainerMounts(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree(newFakeExecutor(), &Collector{})
	ref := PodRef{Name: "p1", Namespace: "default"}

	assert.Equal(t, MountSet{"/var/lib/redis": {}}, tree.ContainerMounts(ctx, ref, "c2"))
	assert.Equal(t, MountSet{"/data": {}, "/etc/app": {}}, tree.ContainerMounts(ctx, ref, ""))
	assert.Empty(t, tree.ContainerMounts(ctx, ref, "missing"))
	assert.Empty(t, tree.ContainerMounts(ctx, PodRef{Name: "nope"}, "c1"))
}

func TestInitContainers(t *testing.T) {
	nodes := InitContainers(PodRef{Name: "p1", Namespace: "default"}, podFixture())
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].Container.Init)
	assert.Equal(t, "Init Container: init ( busybox )", Describe(nodes[0]).Label)
	assert.Nil(t, InitContainers(PodRef{}, nil))
}

func TestNewTree_MissingCollaborators(t *testing.T) {
	_, err := NewTree(nil, newFakeExecutor())
	assert.ErrorIs(t, err, ErrHostCapabilityUnavailable)

	_, err = NewTree(podGetterFor(), nil)
	assert.ErrorIs(t, err, ErrHostCapabilityUnavailable)
}

type recordingObserver struct {
	ops []string
}

func (r *recordingObserver) ObserveExec(_ context.Context, op, _ string, _ time.Duration, _ error) {
	r.ops = append(r.ops, op)
}

func TestTree_ExecObserver(t *testing.T) {
	obs := &recordingObserver{}
	exec := newFakeExecutor().on("ls -F /", ok("a\n"))
	tree := newTestTree(exec, &Collector{}, WithExecObserver(obs))

	tree.ListChildren(context.Background(), rootEntry("c1"))
	assert.Equal(t, []string{"list"}, obs.ops)
}
