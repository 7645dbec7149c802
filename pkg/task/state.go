// Package task implements the task/executor state machine of spec.md §4:
// the task state word and its legal transitions, the waker protocol, the
// TaskID ABI, and the Task/TrapFrame records the scheduler and executor
// operate on.
//
// The state word is grounded on the reference event loop's FastState
// (state.go): a single atomic word advanced by CAS, with cache-line padding
// to keep unrelated tasks' state words from false-sharing a cache line.
package task

import "sync/atomic"

// State is one of the six legal task states of spec.md §4.5.
type State uint64

const (
	// Runnable: on exactly one ready queue, no CPU polling it.
	Runnable State = iota
	// Running: on exactly one CPU.
	Running
	// Blocking: a CPU has decided to suspend this task but has not yet
	// released the state lock.
	Blocking
	// Blocked: referenced only by wakers, timers, or HW receive slots.
	Blocked
	// Waked: a concurrent wake raced a CPU still in Blocking.
	Waked
	// Exited: terminal; observed only by joiners and the drop path.
	Exited
)

// String renders the state for logging.
func (s State) String() string {
	switch s {
	case Runnable:
		return "Runnable"
	case Running:
		return "Running"
	case Blocking:
		return "Blocking"
	case Blocked:
		return "Blocked"
	case Waked:
		return "Waked"
	case Exited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// StateWord is the lock-free CAS-guarded state word carried inline in every
// Task. Cache-line padded on either side so adjacent tasks' state words
// never false-share.
type StateWord struct { // betteralign:ignore
	_ [64]byte
	v atomic.Uint64
	_ [56]byte
}

// NewStateWord creates a state word initialized to Runnable (a task is
// constructed already eligible to run; the caller submits it to a
// scheduler before any CPU can observe it).
func NewStateWord() *StateWord {
	w := &StateWord{}
	w.v.Store(uint64(Runnable))
	return w
}

// Load returns the current state.
func (w *StateWord) Load() State { return State(w.v.Load()) }

// Store unconditionally sets the state. Only legal for the single CPU that
// currently owns the task as Running, or at construction time.
func (w *StateWord) Store(s State) { w.v.Store(uint64(s)) }

// TryTransition attempts the CAS from → to, reporting success. A pair that
// is not one of the legal transitions of spec.md §4.5 is rejected without
// touching the word.
func (w *StateWord) TryTransition(from, to State) bool {
	switch [2]State{from, to} {
	case [2]State{Runnable, Running}, [2]State{Running, Runnable},
		[2]State{Running, Blocking}, [2]State{Running, Exited},
		[2]State{Blocking, Blocked}, [2]State{Blocking, Waked},
		[2]State{Waked, Running}, [2]State{Blocked, Runnable}:
	default:
		return false
	}
	return w.v.CompareAndSwap(uint64(from), uint64(to))
}

// WakeResult reports what a wake operation observed and therefore what the
// caller must do next, per spec.md §4.3's wakeup_task protocol.
type WakeResult int

const (
	// WakeNoop: task was Running or already Runnable; nothing to submit.
	WakeNoop WakeResult = iota
	// WakeObserved: task was Blocking; flipped to Waked, running CPU will
	// notice and keep polling. Nothing to submit.
	WakeObserved
	// WakeSubmit: task was Blocked; flipped to Runnable. Caller must
	// reconstruct its strong reference and submit it to the task's
	// scheduler.
	WakeSubmit
	// WakeFatal: task was Waked or Exited already — an invariant
	// violation (double wake).
	WakeFatal
)

// Wake applies the exact locked-state dispatch of spec.md §4.3: fires the
// state transition for a wakeup_task(ptr) call and tells the caller what
// follow-up action (if any) is required. It does not itself resubmit the
// task to a scheduler; see Task.Wake for the full protocol including the
// reference-count handling.
func (w *StateWord) Wake() WakeResult {
	for {
		cur := w.Load()
		switch cur {
		case Running, Runnable:
			return WakeNoop
		case Blocking:
			if w.TryTransition(Blocking, Waked) {
				return WakeObserved
			}
		case Blocked:
			if w.TryTransition(Blocked, Runnable) {
				return WakeSubmit
			}
		case Waked, Exited:
			return WakeFatal
		default:
			return WakeFatal
		}
	}
}
