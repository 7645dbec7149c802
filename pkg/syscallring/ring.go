package syscallring

import (
	"sync/atomic"
)

// Ring is the fixed-capacity MPMC header of spec.md §6 ("Ring metadata is a
// fixed-capacity MPMC header at offset 0 of the shared page"): a bounded
// array of SyscallItem slots with atomic head/tail cursors, grounded on the
// reference io_uring binding's SQ/CQ ring (head/tail/mask, "submit then
// signal if needed") — generalized here with a per-slot sequence counter
// (the standard bounded-MPMC technique, the same lock-free family as
// pkg/pi's Michael-Scott queue) since, unlike the teacher's single-producer
// SQ, both rings in this channel can in principle have more than one
// enqueuer.
//
// Capacity must be a power of two; slots is then indexed with a mask
// instead of a modulo.
type Ring struct {
	mask  uint64
	slots []ringSlot

	head atomic.Uint64 // next slot to enqueue into
	tail atomic.Uint64 // next slot to dequeue from
}

type ringSlot struct {
	seq  atomic.Uint64
	item SyscallItem
}

// NewRing constructs a Ring with capacity rounded up to the next power of
// two (minimum 2).
func NewRing(capacity int) *Ring {
	if capacity < 2 {
		capacity = 2
	}
	n := 1
	for n < capacity {
		n <<= 1
	}
	r := &Ring{mask: uint64(n - 1), slots: make([]ringSlot, n)}
	for i := range r.slots {
		r.slots[i].seq.Store(uint64(i))
	}
	return r
}

// Enqueue pushes item onto the ring. Returns false if the ring is full
// (spec.md §4.7 "Failure model": the caller decides whether to spin, yield,
// or fall back to a synchronous trap).
func (r *Ring) Enqueue(item SyscallItem) bool {
	for {
		head := r.head.Load()
		slot := &r.slots[head&r.mask]
		seq := slot.seq.Load()
		switch {
		case seq == head:
			if r.head.CompareAndSwap(head, head+1) {
				slot.item = item
				slot.seq.Store(head + 1)
				return true
			}
		case seq < head:
			return false // ring full: producer has lapped every consumer
		default:
			// Another producer is mid-write to this slot; retry.
		}
	}
}

// Dequeue pops the oldest item. Returns false if the ring is empty.
func (r *Ring) Dequeue() (SyscallItem, bool) {
	for {
		tail := r.tail.Load()
		slot := &r.slots[tail&r.mask]
		seq := slot.seq.Load()
		switch {
		case seq == tail+1:
			if r.tail.CompareAndSwap(tail, tail+1) {
				item := slot.item
				slot.seq.Store(tail + r.mask + 1)
				return item, true
			}
		case seq < tail+1:
			return SyscallItem{}, false // ring empty
		default:
			// Another consumer is mid-read of this slot; retry.
		}
	}
}

// Len estimates the number of queued items. Racy under concurrent
// enqueue/dequeue; intended for diagnostics, not correctness.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Cap returns the ring's fixed capacity.
func (r *Ring) Cap() int { return int(r.mask + 1) }
