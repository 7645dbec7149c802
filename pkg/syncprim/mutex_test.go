package syncprim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvtaic/taskrt/pkg/task"
)

func TestMutexUncontendedLockResolvesImmediately(t *testing.T) {
	var m Mutex
	tk := task.New("a", nil)

	result := m.Lock().Poll(task.NewWaker(tk))
	require.True(t, result.IsReady())
}

func TestMutexContendedLockBlocksThenGrantsOnUnlock(t *testing.T) {
	var m Mutex

	holder := task.New("holder", nil)
	require.True(t, holder.PickedToRun())
	require.True(t, m.Lock().Poll(task.NewWaker(holder)).IsReady())

	waiter := task.New("waiter", nil)
	require.True(t, waiter.PickedToRun())
	waiterLock := m.Lock()
	result := waiterLock.Poll(task.NewWaker(waiter))
	require.True(t, result.IsBlocking())
	require.Equal(t, task.Blocked, waiter.Block())

	m.Unlock()
	require.Equal(t, task.Runnable, waiter.State())

	require.True(t, waiter.PickedToRun())
	result = waiterLock.Poll(task.NewWaker(waiter))
	require.True(t, result.IsReady())
}

func TestMutexFIFOOrderAmongMultipleWaiters(t *testing.T) {
	var m Mutex
	holder := task.New("holder", nil)
	require.True(t, holder.PickedToRun())
	require.True(t, m.Lock().Poll(task.NewWaker(holder)).IsReady())

	first := task.New("first", nil)
	require.True(t, first.PickedToRun())
	firstLock := m.Lock()
	require.True(t, firstLock.Poll(task.NewWaker(first)).IsBlocking())
	require.Equal(t, task.Blocked, first.Block())

	second := task.New("second", nil)
	require.True(t, second.PickedToRun())
	secondLock := m.Lock()
	require.True(t, secondLock.Poll(task.NewWaker(second)).IsBlocking())
	require.Equal(t, task.Blocked, second.Block())

	m.Unlock()
	require.Equal(t, task.Runnable, first.State())
	require.Equal(t, task.Blocked, second.State())

	require.True(t, first.PickedToRun())
	require.True(t, firstLock.Poll(task.NewWaker(first)).IsReady())

	m.Unlock()
	require.Equal(t, task.Runnable, second.State())
	require.True(t, second.PickedToRun())
	require.True(t, secondLock.Poll(task.NewWaker(second)).IsReady())
}
