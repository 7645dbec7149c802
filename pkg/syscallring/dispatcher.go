package syscallring

import (
	"sync/atomic"

	"github.com/rvtaic/taskrt/internal/errs"
	"github.com/rvtaic/taskrt/pkg/taic"
	"github.com/rvtaic/taskrt/pkg/task"
)

// Channel binds the two rings, the inter-task-interrupt routing, and the
// lifecycle state of one async-syscall channel instance: spec.md §4.7's "a
// user dispatcher task and a kernel handler task share two rings ... plus
// one pair of hardware sender/receiver registrations".
type Channel struct {
	Request  *Ring // user -> kernel
	Response *Ring // kernel -> user

	router    *taic.InterruptRouter
	handlerID taic.Identity
	userID    taic.Identity

	waiting atomic.Pointer[task.Waker]
	closed  atomic.Bool
}

// NewChannel runs the initialization sequence of spec.md §4.7 steps 1-3:
// allocates the two rings, constructs (but does not submit to a scheduler)
// the handler task, and registers it as the interrupt receiver for
// handlerID. The caller is responsible for steps 4-5: handing the returned
// *Channel and handler task to the scheduler, and calling RegisterSender on
// the user side (see Channel.SubmitRequest, which performs the equivalent
// SendIntr on every successful enqueue).
func NewChannel(capacity int, router *taic.InterruptRouter, handlerID, userID taic.Identity, dispatch DispatchFunc) (*Channel, *task.Task) {
	request := NewRing(capacity)
	response := NewRing(capacity)

	c := &Channel{
		Request:   request,
		Response:  response,
		router:    router,
		handlerID: handlerID,
		userID:    userID,
	}
	handler := NewHandlerTask("syscall-handler", request, response, dispatch, c.wakeWaiting)
	router.RegisterReceiver(handlerID, task.NewWaker(handler))

	return c, handler
}

// wakeWaiting fires whatever waker AwaitCompletion last registered, the
// in-process realization of "the handler's completion write plus its own
// interrupt to the dispatcher provides the wake" (spec.md §4.7): the
// dispatcher-side future's own Waker plays the role the reverse hardware
// interrupt would in a cross-address-space deployment.
func (c *Channel) wakeWaiting() {
	if w := c.waiting.Swap(nil); w != nil {
		w.Wake()
	}
}

// SubmitRequest enqueues item into the request ring and raises the
// inter-task interrupt that wakes the handler if it is blocked on an empty
// ring. Returns false if the ring was full (spec.md "Failure model": the
// caller may spin, yield, or fall back to a synchronous trap).
func (c *Channel) SubmitRequest(item SyscallItem) bool {
	if c.closed.Load() {
		return false
	}
	if !c.Request.Enqueue(item) {
		return false
	}
	c.router.SendIntr(c.handlerID)
	return true
}

// PollCompletion drains one completion from the response ring, if any.
func (c *Channel) PollCompletion() (SyscallItem, bool) {
	return c.Response.Dequeue()
}

// Close marks the channel closed: spec.md's "Remote death" — the handler
// task was killed (or is being torn down deliberately) while requests may
// still be outstanding. Safe to call more than once.
func (c *Channel) Close() {
	c.closed.Store(true)
	c.router.Unregister(c.handlerID)
	c.wakeWaiting()
}

// Closed reports whether Close has been called.
func (c *Channel) Closed() bool { return c.closed.Load() }

// AwaitCompletion returns a Future resolving to the next completion the
// channel produces, or to an *errs.RemoteDeathError if the channel is
// closed first. Modeling note: this resolves to whichever completion is
// next in the response ring, so it is only a precise match for the single
// request's completion when at most one request is in flight on this
// channel at a time; multiplexing many concurrent requests over one
// channel would need a ret_ptr-keyed demultiplexer, left out of scope here.
func (c *Channel) AwaitCompletion() task.Future {
	return task.FutureFunc(func(w *task.Waker) task.PollResult {
		if item, ok := c.PollCompletion(); ok {
			return task.Ready(item)
		}
		if c.Closed() {
			return task.Ready(&errs.RemoteDeathError{Code: -1})
		}
		c.waiting.Store(w)
		return task.Blocking()
	})
}
