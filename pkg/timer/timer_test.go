package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rvtaic/taskrt/pkg/task"
)

func blockedTask(t *testing.T, name string) *task.Task {
	t.Helper()
	tk := task.New(name, task.FutureFunc(func(w *task.Waker) task.PollResult { return task.Blocking() }))
	require.True(t, tk.State() == task.Runnable)
	require.True(t, tk.PickedToRun())
	require.Equal(t, task.Blocked, tk.Block())
	return tk
}

func TestWheelFiresDueAlarmsInDeadlineOrder(t *testing.T) {
	w := NewWheel()
	base := time.Unix(1_700_000_000, 0)

	late := blockedTask(t, "late")
	early := blockedTask(t, "early")

	w.SetAlarmWakeup(base.Add(2*time.Second), task.NewWaker(late))
	w.SetAlarmWakeup(base.Add(1*time.Second), task.NewWaker(early))

	fired := w.Advance(base.Add(500 * time.Millisecond))
	require.Equal(t, 0, fired)
	require.Equal(t, task.Blocked, early.State())
	require.Equal(t, task.Blocked, late.State())

	fired = w.Advance(base.Add(1500 * time.Millisecond))
	require.Equal(t, 1, fired)
	require.Equal(t, task.Runnable, early.State())
	require.Equal(t, task.Blocked, late.State())

	fired = w.Advance(base.Add(3 * time.Second))
	require.Equal(t, 1, fired)
	require.Equal(t, task.Runnable, late.State())
}

func TestWheelCancelAlarmBeforeFiring(t *testing.T) {
	w := NewWheel()
	tk := blockedTask(t, "cancelled")
	id := w.SetAlarmWakeup(time.Unix(0, 0), task.NewWaker(tk))

	require.True(t, w.CancelAlarm(id))
	require.False(t, w.CancelAlarm(id)) // already removed

	fired := w.Advance(time.Unix(100, 0))
	require.Equal(t, 0, fired)
	require.Equal(t, task.Blocked, tk.State())
}

func TestWheelNextDeadlineAndLen(t *testing.T) {
	w := NewWheel()
	_, ok := w.NextDeadline()
	require.False(t, ok)
	require.Equal(t, 0, w.Len())

	tk := blockedTask(t, "a")
	deadline := time.Unix(42, 0)
	w.SetAlarmWakeup(deadline, task.NewWaker(tk))

	got, ok := w.NextDeadline()
	require.True(t, ok)
	require.True(t, got.Equal(deadline))
	require.Equal(t, 1, w.Len())
}
