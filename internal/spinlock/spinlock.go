// Package spinlock provides a minimal CAS-based spinlock used for the
// short, O(1) critical sections spec.md calls "spinlock-protected": task
// state words, scheduler ready-queue enqueue/dequeue, and wait-queue
// mutation. It intentionally does not support recursion or priority
// inheritance — callers hold it only across bounded, allocation-free work.
package spinlock

import (
	"runtime"
	"sync/atomic"
)

// Spinlock is a CAS spinlock with a Gosched backoff, matching the retry-loop
// idiom used throughout the reference event loop's state transitions.
type Spinlock struct {
	held atomic.Bool
}

// Lock spins until the lock is acquired.
func (s *Spinlock) Lock() {
	spins := 0
	for !s.held.CompareAndSwap(false, true) {
		spins++
		if spins > 64 {
			runtime.Gosched()
			spins = 0
		}
	}
}

// TryLock attempts to acquire the lock without blocking.
func (s *Spinlock) TryLock() bool {
	return s.held.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlocking an unheld lock is a programming error
// and panics, matching spec.md's "programming error" language for illegal
// use of the primitives it specifies.
func (s *Spinlock) Unlock() {
	if !s.held.CompareAndSwap(true, false) {
		panic("spinlock: unlock of unheld lock")
	}
}
