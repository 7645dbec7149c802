package taic

import (
	"container/heap"

	"github.com/rvtaic/taskrt/internal/spinlock"
)

// Loopback is a software emulator of one hart's TAIC register file: a real
// priority queue backs add/fetch (ordered the way the controller's
// priority-queue registers are documented to behave — see spec.md §3's
// register table), while every other register is plain read/write storage.
// Used in tests and as the fallback backend when no TAIC silicon is present
// (cmd/demo's non-hardware scenarios).
type Loopback struct {
	mu    spinlock.Spinlock
	pq    idHeap
	plain [HartStride / 8]uint64
}

// NewLoopback constructs an empty emulator.
func NewLoopback() *Loopback { return &Loopback{} }

// idHeap ordered by priority bits (bits 1..5 of the raw id word), with
// insertion order as the tie-break (spec.md §8 scenario 4: "tie-breaking by
// insertion order").
type idHeap []idEntry

type idEntry struct {
	id  uint64
	seq uint64
}

func (h idHeap) priority(v uint64) uint64 { return (v >> 1) & 0x1f }

func (h idHeap) Len() int { return len(h) }
func (h idHeap) Less(i, j int) bool {
	pi, pj := h.priority(h[i].id), h.priority(h[j].id)
	if pi != pj {
		return pi < pj
	}
	return h[i].seq < h[j].seq
}
func (h idHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)   { *h = append(*h, x.(idEntry)) }
func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Write implements Backend.
func (l *Loopback) Write(offset uintptr, v uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch offset {
	case regAdd:
		var nextSeq uint64
		for _, e := range l.pq {
			if e.seq >= nextSeq {
				nextSeq = e.seq + 1
			}
		}
		heap.Push(&l.pq, idEntry{id: v, seq: nextSeq})
	default:
		l.plain[offset/8] = v
	}
}

// Read implements Backend.
func (l *Loopback) Read(offset uintptr) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch offset {
	case regFetch:
		if len(l.pq) == 0 {
			return uint64(fetchEmpty)
		}
		e := heap.Pop(&l.pq).(idEntry)
		return e.id
	default:
		return l.plain[offset/8]
	}
}
