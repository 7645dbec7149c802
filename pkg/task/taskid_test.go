package task

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestTaskIDRoundTrip(t *testing.T) {
	// A stack-allocated 64-byte-aligned buffer to mint pointers from.
	var arena [128]byte
	base := uintptr(unsafe.Pointer(&arena[0]))
	aligned := (base + 63) &^ 63

	for _, q := range []uint8{0, 1, 5, 31, 32, 200} {
		for _, r := range []bool{false, true} {
			ptr := unsafe.Pointer(aligned)
			id := PackTaskID(ptr, q, r)

			require.Equal(t, ptr, id.Pointer())
			require.Equal(t, q%32, id.Priority())
			require.Equal(t, r, id.Preempt())
		}
	}
}

func TestTaskIDPackRejectsMisalignedPointer(t *testing.T) {
	var arena [128]byte
	base := uintptr(unsafe.Pointer(&arena[0]))
	aligned := (base + 63) &^ 63
	misaligned := aligned + 1
	require.Panics(t, func() { PackTaskID(unsafe.Pointer(misaligned), 0, false) })
}

func TestTaskIDPhysicalVirtualRoundTrip(t *testing.T) {
	var arena [4096]byte
	base := uintptr(unsafe.Pointer(&arena[0]))
	aligned := (base + 63) &^ 63
	id := PackTaskID(unsafe.Pointer(aligned), 7, true)

	off := PhysicalOffset(64)
	phys := id.Physical(off)
	back := phys.Virtual(off)

	require.Equal(t, id.Pointer(), back.Pointer())
	require.Equal(t, id.Priority(), back.Priority())
	require.Equal(t, id.Preempt(), back.Preempt())
}

func TestTaskIDWithPriorityAndPreempt(t *testing.T) {
	var arena [128]byte
	base := uintptr(unsafe.Pointer(&arena[0]))
	aligned := (base + 63) &^ 63
	id := PackTaskID(unsafe.Pointer(aligned), 3, false)

	id2 := id.WithPriority(9)
	require.Equal(t, uint8(9), id2.Priority())
	require.Equal(t, id.Pointer(), id2.Pointer())

	id3 := id2.WithPreempt(true)
	require.True(t, id3.Preempt())
	require.Equal(t, uint8(9), id3.Priority())
}
