package taic

import (
	"testing"

	"github.com/rvtaic/taskrt/pkg/task"
	"github.com/stretchr/testify/require"
)

func TestLoopbackPriorityOrderWithTieBreak(t *testing.T) {
	l := NewLoopback()
	d := NewDriver(l)

	// Encode a distinguishing tag in the high bits so entries that share a
	// priority (bits 1..5) can still be told apart by value.
	mk := func(tag, priority uint64) uint64 { return tag<<6 | priority<<1 }

	first := mk(1, 0)
	second := mk(2, 0) // same priority as first, inserted later
	third := mk(3, 1)  // higher priority number, should fetch last

	d.Add(task.TaskID(first))
	d.Add(task.TaskID(second))
	d.Add(task.TaskID(third))

	got1, res := d.Fetch()
	require.Equal(t, FetchOK, res)
	require.EqualValues(t, first, got1)

	got2, _ := d.Fetch()
	require.EqualValues(t, second, got2)

	got3, _ := d.Fetch()
	require.EqualValues(t, third, got3)

	_, res = d.Fetch()
	require.Equal(t, FetchNoTask, res)
}

func TestLoopbackPlainRegistersPassThrough(t *testing.T) {
	l := NewLoopback()
	l.Write(regCurrent, 0xdead)
	require.Equal(t, uint64(0xdead), l.Read(regCurrent))
}
