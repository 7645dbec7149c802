package taic

import (
	"sync"

	"github.com/rvtaic/taskrt/pkg/task"
)

// Identity is the (os, proc, task) triple the register-triad operations
// RegisterReceiver/RegisterSender/SendIntr address (spec.md §4.1 and §4.7).
type Identity struct {
	OS   uint64
	Proc uint64
	Task uint64
}

// InterruptRouter is the no-hardware fallback for inter-task interrupt
// delivery: a real TAIC controller, on SendIntr, looks up the registered
// receiver for the destination triple and invokes wakeup_task on it
// directly in silicon. Loopback (the add/fetch emulator) has no equivalent
// notion of "routing a triad write to a wake", so this is a second,
// narrower emulator for that half of the register file — same rationale as
// Loopback, a different register group.
type InterruptRouter struct {
	mu        sync.Mutex
	receivers map[Identity]*task.Waker
}

// NewInterruptRouter constructs an empty router.
func NewInterruptRouter() *InterruptRouter {
	return &InterruptRouter{receivers: make(map[Identity]*task.Waker)}
}

// RegisterReceiver binds id to w: a SendIntr addressed at id will fire w.
// Mirrors Driver.RegisterReceiver's four-word MMIO write for the case where
// no real controller is present to perform the routing.
func (r *InterruptRouter) RegisterReceiver(id Identity, w *task.Waker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivers[id] = w
}

// Unregister removes any receiver bound to id.
func (r *InterruptRouter) Unregister(id Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.receivers, id)
}

// SendIntr fires the waker registered for id, if any, mirroring
// Driver.SendIntr's triad write in configurations with no real controller
// to perform the routing.
func (r *InterruptRouter) SendIntr(id Identity) {
	r.mu.Lock()
	w := r.receivers[id]
	r.mu.Unlock()
	if w != nil {
		w.Wake()
	}
}
