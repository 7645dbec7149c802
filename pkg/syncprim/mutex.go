// Package syncprim supplies the task-aware shared-resource primitives
// spec.md §5 describes in the abstract ("Shared resources ... Wait queues
// are spinlock-protected intrusive lists of wakers; nodes are removed by
// waker identity") but does not name as their own module: an async mutex
// built directly on pkg/task's Future/Waker/Blocking vocabulary, used by
// spec.md §8 scenario 2.
package syncprim

import (
	"github.com/rvtaic/taskrt/internal/spinlock"
	"github.com/rvtaic/taskrt/pkg/task"
)

// Mutex is a future-aware mutual-exclusion lock: Lock's returned Future
// resolves once the caller holds the lock, suspending (via task.Blocking)
// rather than busy-polling when contended. Ownership transfers directly
// from Unlock to the next waiter in FIFO order, matching spec.md §5's
// "intrusive list of wakers" wait-queue discipline.
type Mutex struct {
	mu      spinlock.Spinlock
	locked  bool
	waiters []*ticket
}

// ticket tracks one pending Lock attempt across its suspend/resume cycle:
// a task.Future closure is polled more than once for the same acquire, and
// granted is how Unlock tells a specific re-poll "it's your turn" rather
// than having it re-race every other waiter against m.locked.
type ticket struct {
	waker   *task.Waker
	granted bool
}

// Lock returns a Future that resolves (Ready(nil)) once this task holds
// the mutex.
func (m *Mutex) Lock() task.Future {
	var t *ticket
	return task.FutureFunc(func(w *task.Waker) task.PollResult {
		m.mu.Lock()
		if t == nil {
			if !m.locked {
				m.locked = true
				m.mu.Unlock()
				return task.Ready(nil)
			}
			t = &ticket{waker: w}
			m.waiters = append(m.waiters, t)
			m.mu.Unlock()
			return task.Blocking()
		}
		granted := t.granted
		m.mu.Unlock()
		if granted {
			return task.Ready(nil)
		}
		// Spurious wake before Unlock granted this ticket: stay suspended.
		return task.Blocking()
	})
}

// Unlock releases the mutex. If a task is waiting, ownership transfers
// directly to it (locked stays true, its ticket is marked granted, and its
// waker fires); otherwise the mutex goes idle.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	if len(m.waiters) == 0 {
		m.locked = false
		m.mu.Unlock()
		return
	}
	next := m.waiters[0]
	m.waiters = m.waiters[1:]
	next.granted = true
	m.mu.Unlock()
	next.waker.Wake()
}
