package task

import "github.com/rvtaic/taskrt/internal/spinlock"

// Waker is an opaque handle that, when fired, transitions a Blocked task to
// Runnable and submits it to its scheduler (spec.md Glossary "Waker").
//
// Unlike a cloned Arc, constructing a Waker does not bump the target task's
// reference count: the count is instead acquired exactly once, at the point
// a task transitions Blocking -> Blocked (see Task.Block), and
// released exactly once when a wake consumes that Blocked state (see
// Wake). This mirrors spec.md §4.3's "raw-pointer-encoded waker" — the Go
// GC keeps the underlying *Task memory alive regardless, but the explicit
// counter still has to balance for the ref-count-conservation invariant in
// spec.md §8 to hold.
type Waker struct {
	target *Task
}

// NewWaker returns a Waker referring to t. Does not touch t's reference
// count; see the Waker doc comment.
func NewWaker(t *Task) *Waker {
	return &Waker{target: t}
}

// Wake fires the waker: applies the state-word dispatch of spec.md §4.3 and,
// if the task was genuinely Blocked, resubmits it to its scheduler,
// releasing the reference count the block path acquired. Safe to call from
// any goroutine, any number of times (idempotent beyond the first firing —
// a second Wake on an already-Runnable/Running task is a no-op).
func (w *Waker) Wake() {
	t := w.target
	switch t.state.Wake() {
	case WakeNoop, WakeObserved:
		return
	case WakeSubmit:
		t.releaseBlockedRef()
		if sched := t.Scheduler(); sched != nil {
			sched.AddTask(t)
		}
	case WakeFatal:
		panic("task: double wake observed on " + t.Name)
	}
}

// WakerQueue is the ordered queue of wakers a task fires on exit (spec.md
// §3 "wait_wakers"), e.g. joiners blocked in a join-style future. Grounded
// on the reference event loop's listener-list discipline in EventTarget:
// an ordered slice guarded by a lock, fired in registration order and then
// cleared.
type WakerQueue struct {
	mu      spinlock.Spinlock
	wakers  []*Waker
}

// Add registers w to be fired the next time Fire is called.
func (q *WakerQueue) Add(w *Waker) {
	q.mu.Lock()
	q.wakers = append(q.wakers, w)
	q.mu.Unlock()
}

// Fire wakes every registered waker, in registration order, and empties the
// queue. Called exactly once, when the owning task exits.
func (q *WakerQueue) Fire() {
	q.mu.Lock()
	wakers := q.wakers
	q.wakers = nil
	q.mu.Unlock()

	for _, w := range wakers {
		w.Wake()
	}
}
