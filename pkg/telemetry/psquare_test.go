package telemetry

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatencyHistogramTracksApproximateMedianAndMax(t *testing.T) {
	h := NewLatencyHistogram()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		h.Observe(float64(rng.Intn(1000)))
	}

	snap := h.Snapshot()
	require.Equal(t, 2000, snap.Count)
	require.InDelta(t, 500, snap.P50, 60)
	require.InDelta(t, 990, snap.P99, 30)
	require.LessOrEqual(t, snap.P50, snap.P99)
	require.Equal(t, 999.0, snap.Max)
}

func TestLatencyHistogramEmptyIsZeroValued(t *testing.T) {
	h := NewLatencyHistogram()
	snap := h.Snapshot()
	require.Equal(t, Snapshot{}, snap)
}
