//go:build threadstyle

// Package executor, threadstyle build: the optional "thread-style"
// suspension API of spec.md §4.6 — blocking while still on a kernel stack,
// rather than by returning Pending from a Future.
//
// The actual register/stack-pointer switch is architecture-specific asm this
// repository does not carry; what lives here is the position-independent
// free-stack pool and the StackPool hooks run_task calls into, grounded on
// pkg/pi's offset-linked primitives (the pool is, per spec.md §4.6, "simple
// LIFO" and "position-independent").
package executor

import (
	"github.com/rvtaic/taskrt/internal/errs"
	"github.com/rvtaic/taskrt/internal/spinlock"
	"github.com/rvtaic/taskrt/pkg/pi"
	"github.com/rvtaic/taskrt/pkg/task"
)

// StackPool is the per-CPU free pool of kernel stacks spec.md §4.6 step 3
// draws from, refilled from the heap on demand. Free stacks are linked
// intrusively: the first machine word of each free stack holds the offset
// of the next free stack (or pi.EmptyOffset), so the pool itself carries no
// per-entry bookkeeping outside the stacks it manages.
type StackPool struct {
	mu        spinlock.Spinlock
	base      pi.Base
	head      pi.Offset
	stackSize int
	refill    func(size int) (pi.Offset, error)
}

// NewStackPool constructs an empty pool over base, with refill invoked to
// carve a fresh stack out of the backing heap when Get finds the pool dry.
func NewStackPool(base pi.Base, stackSize int, refill func(size int) (pi.Offset, error)) *StackPool {
	return &StackPool{base: base, head: pi.EmptyOffset, stackSize: stackSize, refill: refill}
}

// Put returns a stack to the pool, pushing it onto the LIFO head.
func (p *StackPool) Put(stack pi.Offset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*(*pi.Offset)(p.base.Resolve(stack)) = p.head
	p.head = stack
}

// Get pops a free stack, refilling from the heap if the pool is empty.
func (p *StackPool) Get() (pi.Offset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.head == pi.EmptyOffset {
		fresh, err := p.refill(p.stackSize)
		if err != nil {
			return pi.EmptyOffset, &errs.ExhaustionError{Resource: "thread-style kernel stack"}
		}
		return fresh, nil
	}
	next := p.head
	p.head = *(*pi.Offset)(p.base.Resolve(next))
	return next, nil
}

// poolStackRestorer adapts a StackPool to the always-compiled StackRestorer
// hook in executor.go: Restore clears t.Stack and nothing else. It does not
// return the stack to the pool (the pool is not touched) and does not
// perform the architecture-specific register switch, which this repository
// does not carry.
type poolStackRestorer struct {
	pool *StackPool
}

// NewPoolStackRestorer wraps pool as a StackRestorer for use with
// executor.WithStackRestorer.
func NewPoolStackRestorer(pool *StackPool) StackRestorer {
	return &poolStackRestorer{pool: pool}
}

func (r *poolStackRestorer) Restore(t *task.Task) {
	t.Stack = nil
}
