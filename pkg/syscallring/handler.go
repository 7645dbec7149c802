package syscallring

import (
	"unsafe"

	"github.com/rvtaic/taskrt/pkg/task"
)

// DispatchFunc synchronously executes one syscall request and returns the
// value to write to the caller's ret_ptr (spec.md §4.7 step 2, "dispatch
// synchronously to the normal syscall table").
type DispatchFunc func(item SyscallItem) int64

// writeRetPtr writes value to the raw address ret, mirroring how a real
// kernel handler writes a syscall result directly into the calling
// process's memory. A zero ret_ptr is a deliberate no-op, for requests that
// carry no return value.
func writeRetPtr(ret uint64, value int64) {
	if ret == 0 {
		return
	}
	*(*int64)(unsafe.Pointer(uintptr(ret))) = value
}

// NewHandlerTask constructs the kernel handler task of spec.md §4.7 step 2:
// dequeue a request, dispatch it synchronously, write the result to
// ret_ptr, enqueue the completion, loop; block when the request ring is
// empty, letting the hardware wake it on the next enqueue. notify is called
// after every completion successfully enqueued, standing in for "the
// handler's completion write plus its own interrupt to the dispatcher
// provides the wake" — may be nil.
//
// Built with task.NewAligned: like any task that may be queued on the HW
// scheduler, the handler needs a 64-byte-aligned address to pack into a
// TaskID.
func NewHandlerTask(name string, request, response *Ring, dispatch DispatchFunc, notify func()) *task.Task {
	// pending holds a completion that could not be enqueued last poll
	// because the response ring was full — spec.md's failure model leaves
	// spin/yield/trap to policy; this handler yields a tick and retries
	// rather than dropping the completion.
	var pending *SyscallItem

	return task.NewAligned(name, task.FutureFunc(func(w *task.Waker) task.PollResult {
		if pending != nil {
			if response.Enqueue(*pending) {
				pending = nil
				if notify != nil {
					notify()
				}
			}
			return task.Pending()
		}

		item, ok := request.Dequeue()
		if !ok {
			return task.Blocking()
		}

		ret := dispatch(item)
		writeRetPtr(item.RetPtr, ret)

		completion := SyscallItem{ID: item.ID, RetPtr: item.RetPtr, Waker: item.Waker}
		if response.Enqueue(completion) {
			if notify != nil {
				notify()
			}
		} else {
			pending = &completion
		}
		return task.Pending()
	}))
}
