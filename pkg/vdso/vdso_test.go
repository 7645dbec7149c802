package vdso

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvtaic/taskrt/pkg/pi"
	"github.com/rvtaic/taskrt/pkg/scheduler"
	"github.com/rvtaic/taskrt/pkg/taic"
	"github.com/rvtaic/taskrt/pkg/task"
)

func TestSymbolTableAddPickDelete(t *testing.T) {
	st := NewSymbolTable()
	id, err := st.AddScheduler(scheduler.NewFIFO())
	require.NoError(t, err)

	tk := task.New("demo", task.FutureFunc(func(w *task.Waker) task.PollResult { return task.Pending() }))
	require.True(t, st.AddTask(id, tk))

	picked := st.PickNextTask(id)
	require.Same(t, tk, picked)
	require.Nil(t, st.PickNextTask(id))

	require.True(t, st.DeleteScheduler(id))
	require.False(t, st.DeleteScheduler(id))
	require.False(t, st.AddTask(id, tk))
	require.Nil(t, st.PickNextTask(id))
}

func TestSymbolTableUnknownSchedulerIDFails(t *testing.T) {
	st := NewSymbolTable()
	tk := task.New("demo", task.FutureFunc(func(w *task.Waker) task.PollResult { return task.Pending() }))
	require.False(t, st.AddTask(999, tk))
	require.Nil(t, st.PickNextTask(999))
	require.False(t, st.ClearCurrent(999))
}

func TestSymbolTableClearCurrentOnSoftwareSchedulerIsNoop(t *testing.T) {
	st := NewSymbolTable()
	id, err := st.AddScheduler(scheduler.NewFIFO())
	require.NoError(t, err)
	require.False(t, st.ClearCurrent(id)) // FIFO has no current-task slot
}

func TestSymbolTableClearCurrentOnHWScheduler(t *testing.T) {
	st := NewSymbolTable()
	driver := taic.NewDriver(taic.NewLoopback())
	hw := scheduler.NewHWScheduler(driver, 0)
	id, err := st.AddScheduler(hw)
	require.NoError(t, err)
	require.True(t, st.ClearCurrent(id))
}

func TestDataSegmentResolvesBase(t *testing.T) {
	const synthetic pi.Base = 0x1000
	seg := NewDataSegment(func() pi.Base { return synthetic })
	require.Equal(t, synthetic, seg.Base())
}
