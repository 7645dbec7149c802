// Package taic implements the L1 hardware-queue driver of spec.md §4.1: a
// thin typed wrapper over the TAIC/MOIC MMIO register file (§3 "Hardware
// task controller (TAIC) register file").
//
// Grounded on ehrlich-b-go-iouring's Ring: a raw mmap'd []byte region
// reinterpreted as typed register/ring-entry pointers via unsafe.Pointer,
// with sync/atomic guarding the words genuinely shared with hardware (there,
// the kernel; here, the TAIC controller).
package taic

import (
	"sync/atomic"
	"unsafe"
)

// HartStride is the per-hart byte stride of the register window (spec.md
// §3: "Per hart, at base + hart_stride").
const HartStride = 4096

// Register byte offsets within one hart's window.
const (
	regAdd            = 0x00
	regFetch          = 0x08
	regSwitchProcess  = 0x10
	regSwitchOS       = 0x18
	regRegisterRecv   = 0x20 // 0x20..0x40, 4 registers of 8 bytes
	regRegisterSend   = 0x40 // 0x40..0x60, 4 registers of 8 bytes
	regSendIntr       = 0x60 // 0x60..0x78, 3 registers of 8 bytes
	regCurrent        = 0x80
	regRemove         = 0x88
	regStatus         = 0x90
)

// Sentinel values read back from the fetch register.
const (
	fetchEmpty int64 = 0
	fetchError int64 = -1
)

// RegisterFile is a single hart's MMIO register window, backed by a raw
// byte region exactly the way a real TAIC device would expose it (or, for
// testing, a plain allocated buffer standing in for that device memory).
//
// Every register is modeled as an atomic.Uint64 within the backing region:
// this both matches how a real MMIO window must be accessed (never through
// a plain load/store the compiler could reorder or tear) and gives the
// explicit acquire/release pairing spec.md calls "weakly-ordered memory
// with explicit fences at the callsite" — an atomic store is the fence for
// a single register, and multi-register triads are written outermost-last
// with an atomic release store so every earlier plain write in the triad
// is visible before it.
type RegisterFile struct {
	region []byte
	base   unsafe.Pointer
}

// NewRegisterFile wraps region (at least HartStride bytes, 8-byte aligned)
// as a RegisterFile.
func NewRegisterFile(region []byte) *RegisterFile {
	if len(region) < HartStride {
		panic("taic: register region smaller than HartStride")
	}
	return &RegisterFile{region: region, base: unsafe.Pointer(&region[0])}
}

func (r *RegisterFile) reg(offset uintptr) *atomic.Uint64 {
	return (*atomic.Uint64)(unsafe.Add(r.base, offset))
}

// Write stores v into the register at offset. Part of the Backend
// interface.
func (r *RegisterFile) Write(offset uintptr, v uint64) { r.reg(offset).Store(v) }

// Read loads the register at offset. Part of the Backend interface.
func (r *RegisterFile) Read(offset uintptr) uint64 { return r.reg(offset).Load() }

// Backend is the narrow register-access surface Driver depends on. It is
// satisfied by *RegisterFile (a real or simulated MMIO window) and by
// *Loopback (an in-process priority-queue emulator standing in for actual
// TAIC silicon, used in tests and no-hardware environments).
type Backend interface {
	Write(offset uintptr, v uint64)
	Read(offset uintptr) uint64
}

func writeSigned(b Backend, offset uintptr, v int64) { b.Write(offset, uint64(v)) }
func readSigned(b Backend, offset uintptr) int64     { return int64(b.Read(offset)) }
