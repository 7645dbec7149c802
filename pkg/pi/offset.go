// Package pi implements the position-independent primitives of spec.md §4.8:
// a lock-free MPSC queue and a buddy allocator whose intrusive links are
// byte offsets relative to a runtime-supplied base, not absolute pointers,
// so the same backing memory maps correctly at different virtual addresses
// in kernel and user space (the vDSO use case, pkg/vdso).
//
// Grounded on how ehrlich-b-go-iouring's Ring maps SQ/CQ/SQE regions: a
// []byte is reinterpreted as typed cells via unsafe.Pointer arithmetic
// relative to a single base address (ring.go: mapRings). Here the base is
// not fixed at mmap time but supplied per call, since the same structure
// must resolve correctly against more than one base (kernel vs. user
// mapping of the vDSO data segment).
package pi

import "unsafe"

// Offset is a signed byte offset relative to a Base. EmptyOffset is a
// distinguished non-zero sentinel for "no link", so that a legitimately
// zero-valued link (the first byte of the arena) is never confused with
// "empty" — spec.md §3 calls this out explicitly for the vDSO LinkedList
// sentinel.
type Offset int64

// EmptyOffset is the sentinel "this link is absent" value.
const EmptyOffset Offset = -1 << 63

// Base is the address a set of Offsets is relative to. A single arena (e.g.
// one vDSO data segment) is resolved against a different Base in every
// address space it is mapped into; the bytes themselves never change.
type Base uintptr

// Resolve converts o into an absolute pointer against base. Resolving
// EmptyOffset is a programming error and panics.
func (b Base) Resolve(o Offset) unsafe.Pointer {
	if o == EmptyOffset {
		panic("pi: Resolve of EmptyOffset")
	}
	return unsafe.Pointer(uintptr(b) + uintptr(o))
}

// FromPointer computes the Offset of p relative to base. p must lie within
// the same arena base was computed against.
func FromPointer(base Base, p unsafe.Pointer) Offset {
	return Offset(uintptr(p) - uintptr(base))
}

// DataBaseFunc mirrors the vDSO's externally-provided get_data_base()
// symbol: a per-address-space function returning the current Base. pkg/vdso
// supplies the real bootstrap; tests supply a fixed-arena stub.
type DataBaseFunc func() Base
