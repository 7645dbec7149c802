package procglue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpawnCreatesSingleTaskProcess(t *testing.T) {
	leader := noopTask("init")
	p := Spawn(1, leader, nil, nil)
	require.Equal(t, 1, p.Group.LiveTasks())
	require.IsType(t, NullAddressSpace{}, p.Mem)
	require.IsType(t, NullSignalDelivery{}, p.Signals)
}

func TestCloneNewThreadSharesFileTableAndAddressSpace(t *testing.T) {
	leader := noopTask("leader")
	p := Spawn(1, leader, NullAddressSpace{}, NullSignalDelivery{})
	f := &fakeFile{}
	fd := p.Files.Install(f)

	child := noopTask("thread")
	cp := p.Clone(child, 0, CloneFlags{ShareFiles: true, ShareAddrSpace: true})

	require.Same(t, p.Group, cp.Group) // same thread group, not a new process
	require.Equal(t, 2, p.Group.LiveTasks())
	got, ok := cp.Files.Get(fd)
	require.True(t, ok)
	require.Same(t, f, got)
}

func TestCloneNewProcessGetsOwnThreadGroupAndCopiedFiles(t *testing.T) {
	leader := noopTask("leader")
	p := Spawn(1, leader, NullAddressSpace{}, NullSignalDelivery{})
	p.Files.Install(&fakeFile{})

	child := noopTask("forked")
	cp := p.Clone(child, 2, CloneFlags{NewThreadGroup: true})

	require.NotSame(t, p.Group, cp.Group)
	require.Same(t, child, cp.Group.Leader())
	require.EqualValues(t, 2, cp.Group.PID)
	require.Equal(t, 1, p.Group.LiveTasks()) // parent's group untouched

	// Files were copied, not shared: installing into the child must not
	// appear in the parent's table.
	cp.Files.Install(&fakeFile{})
	require.NotEqual(t, len(mustFiles(t, p.Files)), len(mustFiles(t, cp.Files)))
}

func mustFiles(t *testing.T, ft FileTable) []int {
	t.Helper()
	var fds []int
	for i := 0; i < 16; i++ {
		if _, ok := ft.Get(i); ok {
			fds = append(fds, i)
		}
	}
	return fds
}
