//go:build integration

package sud

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ehrlich-b/go-sud/internal/transport"
	"github.com/ehrlich-b/go-sud/internal/wire"
	"github.com/stretchr/testify/require"
)

// S1: a read-only LUN answers Read with GOOD and rejects Write with
// ILLEGAL_REQUEST.
func TestScenarioReadOnlyLUN(t *testing.T) {
	ft := transport.NewFakeTransport()
	p := testParams()
	p.WriteProtected = true
	mem := NewMemoryInterface(p.BlockCount, p.BlockLength)

	seed := bytes.Repeat([]byte{0xAB}, 1024)
	var seedSense SenseData
	require.Equal(t, uint8(ScsiStatusGood), mem.Interface().Write(context.Background(), 0, seed, 2, &seedSense))

	unit, err := createWithTransport(ft, p, &Interface{Read: mem.Interface().Read})
	require.NoError(t, err)
	require.NoError(t, unit.StartDispatcher(2))

	readBuf := make([]byte, 1024)
	ft.Feed(wire.Request{Hint: 1, Kind: wire.KindRead, Read: wire.ReadWriteOp{BlockAddress: 0, Length: 2}, Buffer: readBuf})
	ft.Feed(wire.Request{Hint: 2, Kind: wire.KindWrite, Write: wire.ReadWriteOp{BlockAddress: 0, Length: 1}})

	require.Eventually(t, func() bool { return len(ft.Responses()) >= 2 }, time.Second, time.Millisecond)

	responses := indexByHint(ft.Responses())
	require.Equal(t, uint8(ScsiStatusGood), responses[1].Status.ScsiStatus)
	require.Len(t, responses[1].Buffer, 1024)
	require.Equal(t, seed, responses[1].Buffer)
	require.Equal(t, uint8(ScsiStatusCheckCondition), responses[2].Status.ScsiStatus)
	require.Equal(t, byte(SenseKeyIllegalRequest), responses[2].Status.SenseData[2]&0x0F)

	require.NoError(t, unit.Shutdown())
	require.NoError(t, unit.WaitDispatcher())
}

// S2: a deferred write completes later via SendResponse with a
// matching hint.
func TestScenarioDeferredWrite(t *testing.T) {
	ft := transport.NewFakeTransport()
	p := testParams()

	var unit *StorageUnit
	write := func(ctx context.Context, blockAddress uint64, buf []byte, blockCount uint32, sense *SenseData) uint8 {
		hint, kind, ok := OpContextFromContext(ctx)
		require.True(t, ok)
		go func() {
			time.Sleep(10 * time.Millisecond)
			unit.SendResponse(hint, kind, ScsiStatusGood, SenseData{})
		}()
		return StatusPending
	}

	var err error
	unit, err = createWithTransport(ft, p, &Interface{Write: write})
	require.NoError(t, err)
	require.NoError(t, unit.StartDispatcher(1))

	ft.Feed(wire.Request{Hint: 99, Kind: wire.KindWrite, Write: wire.ReadWriteOp{BlockAddress: 0, Length: 1}})

	require.Eventually(t, func() bool {
		for _, r := range ft.Responses() {
			if r.Hint == 99 {
				return r.Status.ScsiStatus == ScsiStatusGood
			}
		}
		return false
	}, time.Second, time.Millisecond)

	require.NoError(t, unit.Shutdown())
	require.NoError(t, unit.WaitDispatcher())
}

// S3: a Read handler reporting MEDIUM_ERROR encodes the failing LBA
// in the Information field with the valid bit set.
func TestScenarioFaultTranslation(t *testing.T) {
	ft := transport.NewFakeTransport()
	p := testParams()

	read := func(_ context.Context, _ uint64, _ []byte, _ uint32, sense *SenseData) uint8 {
		SetSenseData(sense, SenseKeyMediumError, AscUnrecoveredReadError, AscqUnrecoveredReadError)
		SetSenseInformation(sense, 7)
		return ScsiStatusCheckCondition
	}

	unit, err := createWithTransport(ft, p, &Interface{Read: read})
	require.NoError(t, err)
	require.NoError(t, unit.StartDispatcher(1))

	ft.Feed(wire.Request{Hint: 1, Kind: wire.KindRead, Read: wire.ReadWriteOp{BlockAddress: 7, Length: 1}})

	require.Eventually(t, func() bool { return len(ft.Responses()) >= 1 }, time.Second, time.Millisecond)

	resp := ft.Responses()[0]
	sense := resp.Status.SenseData
	require.Equal(t, byte(SenseKeyMediumError), sense[2]&0x0F)
	require.Equal(t, byte(AscUnrecoveredReadError), sense[12])
	require.NotZero(t, sense[0]&0x80)
	require.Equal(t, []byte{0, 0, 0, 7}, sense[3:7])

	require.NoError(t, unit.Shutdown())
	require.NoError(t, unit.WaitDispatcher())
}

// S4: start(4) on a fake transport spawns exactly 4 workers.
func TestScenarioDispatcherThreadCount(t *testing.T) {
	ft := transport.NewFakeTransport()
	unit, err := createWithTransport(ft, testParams(), nil)
	require.NoError(t, err)
	require.NoError(t, unit.StartDispatcher(4))

	require.Eventually(t, func() bool { return unit.SpawnedWorkerCount() == 4 }, time.Second, time.Millisecond)

	require.NoError(t, unit.Shutdown())
	require.NoError(t, unit.WaitDispatcher())
}

// S5: concurrent guard.Execute(shutdown) and guard.Set(nil) calls never
// crash; every Execute that still observes the unit calls the idempotent
// Shutdown, and the dispatcher then exits.
func TestScenarioShutdownRace(t *testing.T) {
	ft := transport.NewFakeTransport()
	unit, err := createWithTransport(ft, testParams(), nil)
	require.NoError(t, err)
	require.NoError(t, unit.StartDispatcher(2))

	var guard Guard[StorageUnit]
	guard.Set(unit)

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guard.Execute(func(u *StorageUnit) {
				calls.Add(1)
				_ = u.Shutdown()
			})
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		guard.Set(nil)
	}()
	wg.Wait()

	require.NoError(t, unit.WaitDispatcher())
}

// S6: the fake transport returns a fatal error after 10 requests;
// wait_dispatcher reports it and the preceding 10 requests were
// answered.
func TestScenarioErrorLatchingAfterRequests(t *testing.T) {
	ft := transport.NewFakeTransport()
	p := testParams()
	mem := NewMemoryInterface(p.BlockCount, p.BlockLength)
	unit, err := createWithTransport(ft, p, mem.Interface())
	require.NoError(t, err)
	require.NoError(t, unit.StartDispatcher(1))

	ft.FailAfter(10)
	for i := uint64(1); i <= 10; i++ {
		ft.Feed(wire.Request{Hint: i, Kind: wire.KindFlush, Flush: wire.FlushOp{BlockAddress: 0, Length: 1}})
	}

	err = unit.WaitDispatcher()
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeTransportFatal))
	require.Len(t, ft.Responses(), 10)
}

func indexByHint(responses []wire.Response) map[uint64]wire.Response {
	out := make(map[uint64]wire.Response, len(responses))
	for _, r := range responses {
		out[r.Hint] = r
	}
	return out
}
