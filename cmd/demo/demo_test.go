package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunHelloPrintsGreetingAndExitsZero(t *testing.T) {
	var buf bytes.Buffer
	code, err := RunHello(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(0), code)
	require.Equal(t, "hi\n", buf.String())
}

func TestRunMutexRaceHandsOffInFIFOOrder(t *testing.T) {
	var buf bytes.Buffer
	code, err := RunMutexRace(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(0), code)

	out := buf.String()
	lockedA := strings.Index(out, "Mutex locked: 23")
	lockedB := strings.Index(out, "Mutex locked: 34")
	res := strings.Index(out, "res 32")
	require.GreaterOrEqual(t, lockedA, 0)
	require.GreaterOrEqual(t, lockedB, 0)
	require.GreaterOrEqual(t, res, 0)
	// A must acquire before B (B blocks on the same mutex while A holds
	// it), and A can only print the joined result after B has run.
	require.Less(t, lockedA, lockedB)
	require.Less(t, lockedB, res)
}

func TestRunPipeDeliversWrittenBytesToReader(t *testing.T) {
	var buf bytes.Buffer
	got, n, err := RunPipe(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(13), n)
	require.Equal(t, "Hello, world!", got)
}

func TestRunPriorityOrdersTasksByAscendingPriority(t *testing.T) {
	var buf bytes.Buffer
	order, err := RunPriority(&buf)
	require.NoError(t, err)
	require.Equal(t, []string{"p0", "p1", "p2", "p3"}, order)
}

func TestRunPreemptResumesPastTrappedInstruction(t *testing.T) {
	var buf bytes.Buffer
	sepc, err := RunPreempt(&buf)
	require.NoError(t, err)
	require.Equal(t, uint64(0x8000_1004), sepc)

	out := buf.String()
	require.Contains(t, out, "timer IRQ: preempting victim")
	require.Contains(t, out, "other task ran while victim was preempted")
	require.Contains(t, out, "victim resumed at sepc=0x80001004")
}

func TestRunRobustListClearsTIDWordAndWakesFutex(t *testing.T) {
	var buf bytes.Buffer
	cleared, woken, err := RunRobustList(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(0), cleared)
	require.Equal(t, 1, woken)
	require.Contains(t, buf.String(), "futex wake count=1")
}
