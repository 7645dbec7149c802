package task

import (
	"sync/atomic"
	"unsafe"

	"github.com/rvtaic/taskrt/internal/spinlock"
)

// Scheduler is the narrow interface Task needs from whatever scheduler owns
// it: enough to resubmit itself on wake, without pkg/task importing
// pkg/scheduler (which itself depends on pkg/task for the Task type).
type Scheduler interface {
	AddTask(t *Task)
}

// Policy is the scheduling policy/priority pair carried by every task
// (spec.md §3 "scheduling policy & priority").
type Policy struct {
	Class    string // e.g. "fifo", "rr", "cfs", "hw"
	Priority uint8
	Affinity uint64 // CPU affinity mask
}

// TimeAccounting holds the accumulated runtime of a task (spec.md §3 "time
// accounting").
type TimeAccounting struct {
	UserNS   int64
	KernelNS int64
}

// SignalBookkeeping holds the clone/exit bookkeeping fields spec.md groups
// under "signal bookkeeping".
type SignalBookkeeping struct {
	SetTID           uintptr
	ClearTID         uintptr
	PreemptDisable   atomic.Int32
	RobustListHead   uintptr
}

// StackContext is the saved kernel stack and return trap frame for the
// thread-style blocking API of spec.md §4.6, present only while a task is
// voluntarily suspended on its kernel stack rather than via future
// suspension.
type StackContext struct {
	SP        uintptr
	ReturnPC  uintptr
	SavedRegs GPRegs
}

// Task is the unit of async execution of spec.md §3: identity, future,
// state word, wait queue, scheduler handle, and (for user tasks) a trap
// frame, time accounting and signal bookkeeping.
//
// Task is always referenced through a *Task; the spec's Arc<Task>-style
// shared ownership is modeled with an explicit atomic reference count
// (refcount) rather than relying solely on Go's GC, so the ref-count
// conservation invariant (spec.md §8) is a property this code actually
// enforces and tests, not an artifact of never collecting anything.
type Task struct { //nolint:govet // betteralign:ignore
	Name    string
	IsInit  bool
	PID     int64
	Leader  bool

	future Future
	state  StateWord

	exitCode atomic.Int64
	waiters  WakerQueue

	sched atomic.Pointer[schedulerHolder]

	// TrapFrame is nil for kernel tasks; present only for user tasks.
	TrapFrame *TrapFrame

	Policy Policy
	Time   TimeAccounting
	Signal SignalBookkeeping

	// Stack is non-nil only while suspended via the thread-style API.
	Stack *StackContext

	refcount atomic.Int64

	mu spinlock.Spinlock
}

// schedulerHolder lets Task store a Scheduler behind an atomic.Pointer
// (interfaces cannot be stored directly in atomic.Pointer).
type schedulerHolder struct {
	sched Scheduler
}

// New constructs a task in the Runnable state with one reference held by
// the caller (the creator is responsible for either submitting it to a
// scheduler, which itself does not take an additional reference, or
// releasing the reference on failure).
func New(name string, future Future) *Task {
	t := &Task{
		Name:   name,
		future: future,
	}
	t.state.v.Store(uint64(Runnable))
	t.refcount.Store(1)
	return t
}

// taskIDAlignmentBytes mirrors taskIDAlignment from taskid.go: the ABI
// requires a task's address to be 64-byte aligned before it can be packed
// into a TaskID.
const taskIDAlignmentBytes = taskIDAlignment

// NewAligned is New, but additionally guarantees the returned *Task's
// address is 64-byte aligned, as spec.md §3 requires ("the TaskMeta
// structure is 64-byte aligned") so it can be packed into a hardware
// TaskID by the HW scheduler adapter (pkg/scheduler's HWScheduler).
//
// Go's allocator does not expose an aligned-allocation primitive, so this
// over-allocates a byte arena and places the Task at the first aligned
// offset within it — the same over-allocate-and-round technique pkg/pi's
// buddy allocator uses for arena blocks, applied to a single fixed-size
// object. The returned pointer is an interior pointer into that arena; Go's
// GC keeps the whole arena alive for as long as the returned *Task is
// reachable, so no separate reference needs to be retained.
func NewAligned(name string, future Future) *Task {
	const size = int(unsafe.Sizeof(Task{}))
	raw := make([]byte, size+taskIDAlignmentBytes)
	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + taskIDAlignmentBytes - 1) &^ (taskIDAlignmentBytes - 1)
	t := (*Task)(unsafe.Pointer(aligned))
	*t = Task{Name: name, future: future}
	t.state.v.Store(uint64(Runnable))
	t.refcount.Store(1)
	return t
}

// SetScheduler installs the scheduler that owns this task.
func (t *Task) SetScheduler(s Scheduler) {
	t.sched.Store(&schedulerHolder{sched: s})
}

// Scheduler returns the scheduler that owns this task, or nil.
func (t *Task) Scheduler() Scheduler {
	h := t.sched.Load()
	if h == nil {
		return nil
	}
	return h.sched
}

// State returns the current task state.
func (t *Task) State() State { return t.state.Load() }

// ExitCode returns the task's exit code; only meaningful once State() is
// Exited.
func (t *Task) ExitCode() int64 { return t.exitCode.Load() }

// AddRef increments the reference count (spec.md §8 "ref-count
// conservation"). Every AddRef must be balanced by exactly one Release.
func (t *Task) AddRef() { t.refcount.Add(1) }

// Release decrements the reference count. Dropping the last reference to an
// Exited task is the normal end of its lifecycle; dropping the last
// reference to a task in any other state is an invariant violation.
func (t *Task) Release() int64 {
	n := t.refcount.Add(-1)
	if n == 0 && t.State() != Exited {
		panic("task: last reference dropped on a task that has not Exited")
	}
	return n
}

// Block transitions Running -> Blocking -> {Blocked | Waked}. Called by the
// executor's run-task loop (pkg/executor) once a future returns Pending
// having requested suspension. Returns the resulting state: Blocked means
// the caller must clear current without releasing the reference (the
// extra reference keeps the task alive for the waker); Waked means a
// racing wakeup_task already fired and the caller should loop and re-poll.
func (t *Task) Block() State {
	if !t.state.TryTransition(Running, Blocking) {
		panic("task: Block called on a task that was not Running")
	}
	// The extra reference a Blocked task needs (so the raw pointer a waker
	// holds stays valid) is acquired here, before racing with a concurrent
	// wakeup_task that might flip Blocking -> Waked first.
	t.AddRef()
	if t.state.TryTransition(Blocking, Blocked) {
		return Blocked
	}
	// Lost the race: a wakeup_task already observed Blocking and flipped it
	// to Waked. The reference acquired above is no longer needed since the
	// task never actually reached Blocked.
	t.releaseBlockedRef()
	return Waked
}

// releaseBlockedRef releases the reference Blocked held, invoked by Waker.Wake
// on the WakeSubmit path (consuming the Blocked reference) and by the losing
// side of the Block race above.
func (t *Task) releaseBlockedRef() { t.Release() }

// ResumeFromWaked transitions Waked -> Running: a racing waker already
// demanded more work while the executor was deciding how to suspend this
// task, so the executor must loop and re-poll instead of suspending it.
func (t *Task) ResumeFromWaked() bool {
	return t.state.TryTransition(Waked, Running)
}

// RequeueVoluntary transitions Running -> Runnable: a task whose future
// returned Pending for reasons other than requesting suspension (a
// cooperative yield, or a user task not yet trap_status==Done) goes back
// to its scheduler's ready queue without ever touching Blocking/Blocked.
func (t *Task) RequeueVoluntary() bool {
	return t.state.TryTransition(Running, Runnable)
}

// PickedToRun transitions Runnable -> Running: the executor has selected
// this task via PickNext and is about to poll it.
func (t *Task) PickedToRun() bool {
	return t.state.TryTransition(Runnable, Running)
}

// Preempt implements spec.md §9's preempt-disable discipline ("preemption
// on timer IRQ checks both preempt_pending and counter == 0"): an
// involuntary Running -> Runnable transition driven by a timer interrupt
// rather than the task's own future returning. Refuses (returns false)
// while Signal.PreemptDisable is nonzero. On success, and only when this
// is a user task, advances TrapFrame.SEPC past the interrupted instruction
// so the task resumes at the instruction following its trap, per spec.md
// §8 scenario 5 — the next poll is expected to observe TrapDone and
// return straight to that address rather than re-executing the trap.
func (t *Task) Preempt() bool {
	if t.Signal.PreemptDisable.Load() != 0 {
		return false
	}
	if !t.state.TryTransition(Running, Runnable) {
		return false
	}
	if t.TrapFrame != nil {
		t.TrapFrame.SEPC += 4
	}
	return true
}

// Exit marks the task Exited, records its exit code, and fires every
// waiter registered in wait_wakers (spec.md §4.4 "Ready(code)").
func (t *Task) Exit(code int64) {
	t.exitCode.Store(code)
	t.state.Store(Exited)
	t.waiters.Fire()
}

// AddWaiter registers w to be fired when this task exits.
func (t *Task) AddWaiter(w *Waker) { t.waiters.Add(w) }

// Future returns the task's future for polling. Only the executor holding
// this task as Running may call Poll on it.
func (t *Task) Future() Future { return t.future }
