package syscallring

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/rvtaic/taskrt/internal/errs"
	"github.com/rvtaic/taskrt/pkg/taic"
	"github.com/rvtaic/taskrt/pkg/task"
)

// drivePoll performs one minimal run_task-style iteration against t,
// standing in for pkg/executor so this package's tests don't need to pull
// in the full executor/scheduler machinery just to advance a future.
func drivePoll(t *testing.T, tk *task.Task) task.PollResult {
	t.Helper()
	require.True(t, tk.PickedToRun())
	result := tk.Future().Poll(task.NewWaker(tk))
	switch {
	case result.IsReady():
		tk.Exit(0)
	case result.IsBlocking():
		tk.Block()
	default:
		require.True(t, tk.RequeueVoluntary())
	}
	return result
}

func echoDispatch(item SyscallItem) int64 { return int64(item.ID) * 2 }

func TestChannelRoundTrip(t *testing.T) {
	router := taic.NewInterruptRouter()
	handlerID := taic.Identity{OS: 1, Proc: 1, Task: 1}
	userID := taic.Identity{OS: 1, Proc: 1, Task: 2}
	ch, handler := NewChannel(8, router, handlerID, userID, echoDispatch)

	// Handler starts with an empty request ring: one poll observes this and
	// blocks.
	result := drivePoll(t, handler)
	require.False(t, result.IsReady())
	require.Equal(t, task.Blocked, handler.State())

	var ret int64
	req := SyscallItem{ID: 21, RetPtr: uint64(uintptr(unsafe.Pointer(&ret)))}
	require.True(t, ch.SubmitRequest(req))

	// SubmitRequest's SendIntr woke the handler via the router.
	require.Equal(t, task.Runnable, handler.State())
	result = drivePoll(t, handler)
	require.False(t, result.IsReady())
	require.Equal(t, int64(42), ret)

	item, ok := ch.PollCompletion()
	require.True(t, ok)
	require.Equal(t, uint64(21), item.ID)
}

func TestChannelAwaitCompletionResolvesAfterSubmit(t *testing.T) {
	router := taic.NewInterruptRouter()
	handlerID := taic.Identity{OS: 1, Proc: 2, Task: 1}
	userID := taic.Identity{OS: 1, Proc: 2, Task: 2}
	ch, handler := NewChannel(8, router, handlerID, userID, echoDispatch)
	drivePoll(t, handler) // handler blocks on empty ring

	waiter := task.New("waiter", task.FutureFunc(func(w *task.Waker) task.PollResult {
		return ch.AwaitCompletion().Poll(w)
	}))
	result := drivePoll(t, waiter)
	require.False(t, result.IsReady())
	require.Equal(t, task.Blocked, waiter.State())

	require.True(t, ch.SubmitRequest(SyscallItem{ID: 5}))
	drivePoll(t, handler) // dequeues, dispatches, enqueues completion, wakes waiter

	require.Equal(t, task.Runnable, waiter.State())
	result = drivePoll(t, waiter)
	require.True(t, result.IsReady())
	completion := result.Value().(SyscallItem)
	require.Equal(t, uint64(5), completion.ID)
}

func TestChannelCloseResolvesOutstandingAwaitersWithRemoteDeath(t *testing.T) {
	router := taic.NewInterruptRouter()
	handlerID := taic.Identity{OS: 1, Proc: 3, Task: 1}
	userID := taic.Identity{OS: 1, Proc: 3, Task: 2}
	ch, _ := NewChannel(8, router, handlerID, userID, echoDispatch)

	waiter := task.New("waiter", task.FutureFunc(func(w *task.Waker) task.PollResult {
		return ch.AwaitCompletion().Poll(w)
	}))
	drivePoll(t, waiter)
	require.Equal(t, task.Blocked, waiter.State())

	ch.Close()
	require.Equal(t, task.Runnable, waiter.State())

	result := drivePoll(t, waiter)
	require.True(t, result.IsReady())
	require.ErrorAs(t, result.Value().(error), new(*errs.RemoteDeathError))
}

func TestChannelSubmitRequestFailsWhenClosed(t *testing.T) {
	router := taic.NewInterruptRouter()
	ch, _ := NewChannel(2, router, taic.Identity{Task: 1}, taic.Identity{Task: 2}, echoDispatch)
	ch.Close()
	require.False(t, ch.SubmitRequest(SyscallItem{ID: 1}))
}
