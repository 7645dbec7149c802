package pi

import (
	"sync/atomic"
	"unsafe"
)

// node is the intrusive link stored inline in the arena at every queue slot.
// next is itself an Offset (not a pointer), so the arena can be mapped at a
// different base in every address space without the links going stale —
// the core requirement of spec.md §4.8 and §9 "position independence".
type node struct {
	next  atomic.Int64 // Offset, or int64(EmptyOffset)
	value uint64
}

const nodeSize = int(unsafe.Sizeof(node{}))

func nodeAt(base Base, o Offset) *node {
	return (*node)(base.Resolve(o))
}

// NodeAllocator is the minimal allocation interface MPSCQueue needs from a
// backing arena allocator (satisfied by *BuddyAllocator).
type NodeAllocator interface {
	Alloc(size int) (Offset, bool)
	Free(o Offset, size int)
}

// MPSCQueue is a Michael-Scott-derived lock-free queue restricted to a
// single consumer, matching the open question in spec.md §9: "the shipped
// configuration silently restricts safety to MPSC" — multiple producers may
// Push concurrently, but Pop must only ever be called from one logical
// consumer (the executor's single polling goroutine, or the async-syscall
// handler task). This sidesteps the need for epoch-based reclamation: only
// the sole consumer ever frees a dequeued node, so no producer can be
// holding a reference to memory the consumer just freed.
type MPSCQueue struct {
	base  Base
	alloc NodeAllocator
	head  atomic.Int64 // Offset of the dummy/sentinel node
	tail  atomic.Int64 // Offset of the last node (may lag during a push)
}

// NewMPSCQueue allocates a dummy sentinel node from alloc and returns an
// empty queue resolved against base.
func NewMPSCQueue(base Base, alloc NodeAllocator) (*MPSCQueue, bool) {
	dummy, ok := alloc.Alloc(nodeSize)
	if !ok {
		return nil, false
	}
	n := nodeAt(base, dummy)
	n.next.Store(int64(EmptyOffset))
	n.value = 0

	q := &MPSCQueue{base: base, alloc: alloc}
	q.head.Store(int64(dummy))
	q.tail.Store(int64(dummy))
	return q, true
}

// Push enqueues value. Safe for concurrent use by multiple producers.
func (q *MPSCQueue) Push(value uint64) bool {
	newOff, ok := q.alloc.Alloc(nodeSize)
	if !ok {
		return false
	}
	n := nodeAt(q.base, newOff)
	n.next.Store(int64(EmptyOffset))
	n.value = value

	for {
		tailOff := Offset(q.tail.Load())
		tail := nodeAt(q.base, tailOff)
		next := Offset(tail.next.Load())

		if next == EmptyOffset {
			if tail.next.CompareAndSwap(int64(EmptyOffset), int64(newOff)) {
				// Advance tail; best-effort, a racing producer may do it for us.
				q.tail.CompareAndSwap(int64(tailOff), int64(newOff))
				return true
			}
			continue
		}
		// tail was lagging behind an already-linked node; help advance it.
		q.tail.CompareAndSwap(int64(tailOff), int64(next))
	}
}

// Pop dequeues a value. MUST NOT be called concurrently — see MPSCQueue doc.
func (q *MPSCQueue) Pop() (uint64, bool) {
	headOff := Offset(q.head.Load())
	head := nodeAt(q.base, headOff)
	nextOff := Offset(head.next.Load())
	if nextOff == EmptyOffset {
		return 0, false
	}
	next := nodeAt(q.base, nextOff)
	value := next.value

	q.head.Store(int64(nextOff))
	// The old dummy is now dead: only the single consumer ever reaches this
	// point, so it is safe to free immediately (no epoch reclamation
	// needed, per the MPSC restriction above).
	q.alloc.Free(headOff, nodeSize)
	return value, true
}

// Empty reports whether the queue currently has no elements. Racy with
// concurrent Push; intended for diagnostics/backpressure checks only.
func (q *MPSCQueue) Empty() bool {
	head := nodeAt(q.base, Offset(q.head.Load()))
	return Offset(head.next.Load()) == EmptyOffset
}
