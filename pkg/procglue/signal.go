package procglue

import "unsafe"

// SignalDelivery is the minimal capability this module needs from a real
// signal/futex subsystem: waking futex waiters at a user address. Actual
// signal delivery (handlers, masks, queued siginfo) is out of scope; this
// interface exists purely to support robust-list exit cleanup.
type SignalDelivery interface {
	FutexWake(addr uintptr, count int) int
}

// NullSignalDelivery discards futex wakes, for tasks that never set a
// clear_child_tid address.
type NullSignalDelivery struct{}

func (NullSignalDelivery) FutexWake(uintptr, int) int { return 0 }

// ClearChildTID implements spec.md's robust-list exit cleanup: if t's
// clear_child_tid user address is set, zero it and deliver a futex wake of
// count 1 there, exactly as Linux's exit_mm/mm_release does for
// CLONE_CHILD_CLEARTID.
func ClearChildTID(clearTID uintptr, delivery SignalDelivery) {
	if clearTID == 0 {
		return
	}
	*(*uint32)(unsafe.Pointer(clearTID)) = 0 //nolint:gosec // user address, by contract of SignalBookkeeping.ClearTID
	delivery.FutexWake(clearTID, 1)
}
