package sud

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetricsRecordReadAccumulatesBytesAndOps(t *testing.T) {
	m := NewMetrics()
	m.RecordRead(4096, 5_000, true)
	m.RecordRead(4096, 15_000, true)
	snap := m.Snapshot()
	require.Equal(t, uint64(2), snap.ReadOps)
	require.Equal(t, uint64(8192), snap.ReadBytes)
	require.Zero(t, snap.ReadErrors)
}

func TestMetricsRecordWriteErrorDoesNotCountBytes(t *testing.T) {
	m := NewMetrics()
	m.RecordWrite(4096, 1_000, false)
	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.WriteOps)
	require.Zero(t, snap.WriteBytes)
	require.Equal(t, uint64(1), snap.WriteErrors)
}

func TestMetricsErrorRateReflectsFailures(t *testing.T) {
	m := NewMetrics()
	m.RecordRead(512, 1_000, true)
	m.RecordRead(512, 1_000, false)
	snap := m.Snapshot()
	require.InDelta(t, 50.0, snap.ErrorRate, 0.001)
}

func TestMetricsPercentilesMonotonic(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 100; i++ {
		m.RecordRead(512, uint64(i+1)*1_000, true)
	}
	snap := m.Snapshot()
	require.LessOrEqual(t, snap.LatencyP50Ns, snap.LatencyP99Ns)
	require.LessOrEqual(t, snap.LatencyP99Ns, snap.LatencyP999Ns)
}

func TestMetricsResetClearsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordFlush(1_000, true)
	m.Reset()
	snap := m.Snapshot()
	require.Zero(t, snap.FlushOps)
	require.Zero(t, snap.TotalOps)
}

func TestMetricsObserverDelegatesToMetrics(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)
	obs.ObserveRead(1024, 2_000, true)
	obs.ObserveWrite(2048, 3_000, true)
	obs.ObserveFlush(1_000, true)
	obs.ObserveUnmap(4096, 4_000, true)
	obs.ObserveWorkerCount(4)

	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.ReadOps)
	require.Equal(t, uint64(1), snap.WriteOps)
	require.Equal(t, uint64(1), snap.FlushOps)
	require.Equal(t, uint64(1), snap.UnmapOps)
	require.Equal(t, int32(4), snap.WorkerCount)
}

func TestNoOpObserverSatisfiesInterface(t *testing.T) {
	var obs Observer = NoOpObserver{}
	obs.ObserveRead(0, 0, true)
	obs.ObserveWorkerCount(1)
}
