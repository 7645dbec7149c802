package pi

import (
	"math/bits"

	"github.com/rvtaic/taskrt/internal/spinlock"
)

// freeHeader is the intrusive link of a free block: just an offset to the
// next free block of the same order, resolved the same way queue nodes are.
type freeHeader struct {
	next Offset
}

const freeHeaderSize = 8 // one Offset field

// BuddyAllocator is a conventional power-of-two free-list allocator whose
// free-block headers are offset-linked (spec.md §4.8 "Buddy allocator").
// Splits, coalesces and allocation bookkeeping all operate in terms of
// Offset into the shared arena, so the same allocator state is valid when
// resolved against a different Base in another address space.
//
// Spinlock-protected per spec.md §3 ("The allocator is spinlock-protected");
// in the vDSO path it is entered only with preemption disabled by the
// caller (pkg/executor honors this via the preempt-disable counter).
type BuddyAllocator struct {
	base      Base
	arenaOff  Offset
	minOrder  int // log2(minimum block size)
	maxOrder  int // log2(arena size)
	freeLists []Offset
	mu        spinlock.Spinlock
}

// NewBuddyAllocator creates an allocator managing a single free block
// spanning [arenaOff, arenaOff+arenaSize). arenaSize and minBlockSize must
// both be powers of two, with minBlockSize >= freeHeaderSize.
func NewBuddyAllocator(base Base, arenaOff Offset, arenaSize, minBlockSize int) *BuddyAllocator {
	if minBlockSize < freeHeaderSize {
		minBlockSize = freeHeaderSize
	}
	if bits.OnesCount(uint(arenaSize)) != 1 || bits.OnesCount(uint(minBlockSize)) != 1 {
		panic("pi: BuddyAllocator requires power-of-two arenaSize and minBlockSize")
	}

	minOrder := bits.TrailingZeros(uint(minBlockSize))
	maxOrder := bits.TrailingZeros(uint(arenaSize))

	a := &BuddyAllocator{
		base:      base,
		arenaOff:  arenaOff,
		minOrder:  minOrder,
		maxOrder:  maxOrder,
		freeLists: make([]Offset, maxOrder+1),
	}
	for i := range a.freeLists {
		a.freeLists[i] = EmptyOffset
	}
	a.pushFree(maxOrder, arenaOff)
	return a
}

func (a *BuddyAllocator) header(o Offset) *freeHeader {
	return (*freeHeader)(a.base.Resolve(o))
}

func (a *BuddyAllocator) pushFree(order int, o Offset) {
	h := a.header(o)
	h.next = a.freeLists[order]
	a.freeLists[order] = o
}

// removeFree removes target from the order free list if present, reporting
// whether it was found. Used to detect a free buddy for coalescing.
func (a *BuddyAllocator) removeFree(order int, target Offset) bool {
	cur := a.freeLists[order]
	if cur == EmptyOffset {
		return false
	}
	if cur == target {
		a.freeLists[order] = a.header(cur).next
		return true
	}
	prev := cur
	cur = a.header(cur).next
	for cur != EmptyOffset {
		if cur == target {
			a.header(prev).next = a.header(cur).next
			return true
		}
		prev = cur
		cur = a.header(cur).next
	}
	return false
}

func orderFor(size int) int {
	if size < 1 {
		size = 1
	}
	o := bits.Len(uint(size - 1))
	return o
}

// Alloc returns an Offset to a block of at least size bytes, splitting
// larger free blocks as necessary. Reports false on exhaustion.
func (a *BuddyAllocator) Alloc(size int) (Offset, bool) {
	order := orderFor(size)
	if order < a.minOrder {
		order = a.minOrder
	}
	if order > a.maxOrder {
		return EmptyOffset, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocOrderLocked(order)
}

func (a *BuddyAllocator) allocOrderLocked(order int) (Offset, bool) {
	if order > a.maxOrder {
		return EmptyOffset, false
	}
	if a.freeLists[order] != EmptyOffset {
		o := a.freeLists[order]
		a.freeLists[order] = a.header(o).next
		return o, true
	}

	// No block at this order: split one from the next order up.
	parent, ok := a.allocOrderLocked(order + 1)
	if !ok {
		return EmptyOffset, false
	}
	buddy := parent + Offset(1<<order)
	a.pushFree(order, buddy)
	return parent, true
}

// Free returns a previously allocated block (of the given original size) to
// the allocator, coalescing with its buddy whenever the buddy is also free.
func (a *BuddyAllocator) Free(o Offset, size int) {
	order := orderFor(size)
	if order < a.minOrder {
		order = a.minOrder
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.freeOrderLocked(order, o)
}

func (a *BuddyAllocator) freeOrderLocked(order int, o Offset) {
	for order < a.maxOrder {
		blockOff := o - a.arenaOff
		buddyOff := Offset(int64(blockOff) ^ int64(1<<order))
		buddy := a.arenaOff + buddyOff
		if !a.removeFree(order, buddy) {
			break
		}
		// Buddy was free: coalesce into the lower of the two addresses and
		// retry one order up.
		if buddy < o {
			o = buddy
		}
		order++
	}
	a.pushFree(order, o)
}
