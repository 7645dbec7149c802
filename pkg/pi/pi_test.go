package pi

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// arenaBase backs a fixed byte slice with a Base, mimicking how a single
// vDSO data segment is resolved against different bases in different
// address spaces: here we only need one, but every resolve goes through
// Offset/Base exactly as a multi-address-space caller would.
func arenaBase(t *testing.T, size int) Base {
	t.Helper()
	buf := make([]byte, size)
	return Base(uintptr(unsafe.Pointer(&buf[0])))
}

func TestOffsetRoundTrip(t *testing.T) {
	base := arenaBase(t, 4096)
	for _, o := range []Offset{0, 8, 64, 4000} {
		p := base.Resolve(o)
		got := FromPointer(base, p)
		require.Equal(t, o, got, "as_addr(as_offset(o)) == o must hold for offset %d", o)
	}
}

func TestOffsetResolveEmptyPanics(t *testing.T) {
	base := arenaBase(t, 64)
	require.Panics(t, func() { base.Resolve(EmptyOffset) })
}

func TestBuddyAllocSplitAndCoalesce(t *testing.T) {
	const arenaSize = 1024
	base := arenaBase(t, arenaSize)
	a := NewBuddyAllocator(base, 0, arenaSize, 16)

	o1, ok := a.Alloc(16)
	require.True(t, ok)
	o2, ok := a.Alloc(16)
	require.True(t, ok)
	require.NotEqual(t, o1, o2)

	a.Free(o1, 16)
	a.Free(o2, 16)

	// After freeing both buddies the whole arena should be allocatable as
	// one block again (proves coalescing walked back up to maxOrder).
	big, ok := a.Alloc(arenaSize)
	require.True(t, ok, "expected coalesced free blocks to satisfy a full-arena allocation")
	require.Equal(t, Offset(0), big)
}

func TestBuddyAllocExhaustion(t *testing.T) {
	const arenaSize = 64
	base := arenaBase(t, arenaSize)
	a := NewBuddyAllocator(base, 0, arenaSize, 16)

	_, ok1 := a.Alloc(16)
	_, ok2 := a.Alloc(16)
	_, ok3 := a.Alloc(16)
	_, ok4 := a.Alloc(16)
	require.True(t, ok1 && ok2 && ok3 && ok4)

	_, ok5 := a.Alloc(16)
	require.False(t, ok5, "arena of 4 min-sized blocks should be exhausted after 4 allocations")
}

func TestMPSCQueueFIFO(t *testing.T) {
	const arenaSize = 1 << 16
	base := arenaBase(t, arenaSize)
	alloc := NewBuddyAllocator(base, 0, arenaSize, 32)

	q, ok := NewMPSCQueue(base, alloc)
	require.True(t, ok)

	_, empty := q.Pop()
	require.False(t, empty)

	for i := uint64(1); i <= 5; i++ {
		require.True(t, q.Push(i))
	}
	for i := uint64(1); i <= 5; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok = q.Pop()
	require.False(t, ok)
}

func TestMPSCQueueConcurrentProducers(t *testing.T) {
	const arenaSize = 1 << 20
	base := arenaBase(t, arenaSize)
	alloc := NewBuddyAllocator(base, 0, arenaSize, 32)

	q, ok := NewMPSCQueue(base, alloc)
	require.True(t, ok)

	const producers = 8
	const perProducer = 200
	done := make(chan struct{}, producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			for i := 0; i < perProducer; i++ {
				for !q.Push(uint64(p*perProducer + i)) {
				}
			}
			done <- struct{}{}
		}(p)
	}
	for p := 0; p < producers; p++ {
		<-done
	}

	seen := make(map[uint64]bool)
	count := 0
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		require.False(t, seen[v], "duplicate value dequeued: %d", v)
		seen[v] = true
		count++
	}
	require.Equal(t, producers*perProducer, count)
}
