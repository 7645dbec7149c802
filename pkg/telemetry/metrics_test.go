package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueDepthTracksCurrentMaxAndEMA(t *testing.T) {
	var q QueueDepth
	q.Set(4)
	snap := q.Snapshot()
	require.Equal(t, 4, snap.Current)
	require.Equal(t, 4, snap.Max)
	require.Equal(t, 4.0, snap.Average) // warm-started

	q.Set(10)
	snap = q.Snapshot()
	require.Equal(t, 10, snap.Current)
	require.Equal(t, 10, snap.Max)
	require.InDelta(t, 4.6, snap.Average, 0.001) // 0.1*10 + 0.9*4

	q.Set(2)
	snap = q.Snapshot()
	require.Equal(t, 2, snap.Current)
	require.Equal(t, 10, snap.Max) // max never drops
}

func TestThroughputCountsEventsWithinWindowAndAgesOutStale(t *testing.T) {
	tp := NewThroughput(1*time.Second, 100*time.Millisecond)
	base := time.Unix(1_700_000_000, 0)

	for i := 0; i < 5; i++ {
		tp.Incr(base)
	}
	require.InDelta(t, 5.0, tp.Rate(base), 0.001)

	// Advance past the whole window: every bucket should have rotated out.
	later := base.Add(2 * time.Second)
	require.InDelta(t, 0.0, tp.Rate(later), 0.001)

	tp.Incr(later)
	require.InDelta(t, 1.0, tp.Rate(later), 0.001)
}

func TestSchedulerMetricsConstructsIndependentSubcomponents(t *testing.T) {
	m := NewSchedulerMetrics()
	m.ReadyQueue.Set(3)
	m.PollTime.Observe(100)
	m.Completed.Incr(time.Unix(1_700_000_000, 0))

	require.Equal(t, 3, m.ReadyQueue.Snapshot().Current)
	require.Equal(t, 1, m.PollTime.Snapshot().Count)
}
