// Package syscallring implements the async-syscall channel of spec.md §4.7:
// a user dispatcher task and a kernel handler task exchanging fixed-size
// SyscallItem records over a pair of lock-free rings, waking each other via
// the TAIC's inter-task interrupt rather than blocking syscalls.
package syscallring

import "unsafe"

// itemRecordSize is the 128-byte aligned record size spec.md §6 "Ring
// layout" specifies for SyscallItem, padded out from its natural 72 bytes
// (id + 6 args + ret_ptr + waker, all u64) to the full alignment.
const itemRecordSize = 128

// SyscallItem is one async syscall request or completion record: an id
// (syscall number, or an opaque completion tag echoing the request), up to
// six word-sized arguments, the address to write the result to, and an
// opaque waker handle the handler signals on completion.
type SyscallItem struct {
	ID     uint64
	Args   [6]uint64
	RetPtr uint64
	Waker  uint64
	_      [itemRecordSize - 8 - 6*8 - 8 - 8]byte
}

func init() {
	if unsafe.Sizeof(SyscallItem{}) != itemRecordSize {
		panic("syscallring: SyscallItem padding miscalculated")
	}
}
