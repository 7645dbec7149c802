package task

// PollResult is the outcome of one Future.Poll call, the Go rendition of
// spec.md §4's Rust-style Poll<T>: either the future produced a value, or it
// is incomplete and must be polled again, either after a cooperative yield
// (Pending) or after a wake (Blocking).
type PollResult struct {
	ready    bool
	blocking bool
	value    any
}

// Ready constructs a completed PollResult carrying value.
func Ready(value any) PollResult { return PollResult{ready: true, value: value} }

// Pending constructs an incomplete PollResult representing a cooperative
// yield: the task goes straight back to Runnable (spec.md §4.4 "Running +
// other" branch), never touching Blocking/Blocked.
func Pending() PollResult { return PollResult{} }

// Blocking constructs an incomplete PollResult representing a genuine
// suspension request: the future has registered (or will register, via the
// Waker it was polled with) to be woken later, and the task should move
// through Blocking to Blocked rather than simply requeue (spec.md §4.4
// "Blocking" branch).
func Blocking() PollResult { return PollResult{blocking: true} }

// IsReady reports whether the future completed.
func (r PollResult) IsReady() bool { return r.ready }

// IsBlocking reports whether a Pending result requested true suspension.
func (r PollResult) IsBlocking() bool { return !r.ready && r.blocking }

// Value returns the completed value; only meaningful when IsReady is true.
func (r PollResult) Value() any { return r.value }

// Future is the type-erased async computation a Task drives to completion.
// Poll is called with the Waker the task would register itself against were
// it to suspend; a Future that returns Blocking MUST have arranged for that
// Waker (or a clone of it) to be woken exactly once for every suspension, or
// the task leaks forever (spec.md §8 "Wake coverage"). Pending needs no wake:
// the task is requeued as Runnable.
type Future interface {
	Poll(w *Waker) PollResult
}

// FutureFunc adapts a plain poll function to the Future interface, the way a
// single-shot synchronous computation is wrapped without a dedicated type.
type FutureFunc func(w *Waker) PollResult

func (f FutureFunc) Poll(w *Waker) PollResult { return f(w) }
