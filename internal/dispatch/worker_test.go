package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-sud/internal/iface"
	"github.com/ehrlich-b/go-sud/internal/transport"
	"github.com/ehrlich-b/go-sud/internal/wire"
)

const testBlockLength = 512

func memoryInterface(t *testing.T, data []byte) *iface.Interface {
	t.Helper()
	return &iface.Interface{
		Read: func(ctx context.Context, blockAddress uint64, buf []byte, blockCount uint32, sense *iface.Sense) uint8 {
			off := blockAddress * testBlockLength
			length := uint64(blockCount) * testBlockLength
			copy(buf, data[off:off+length])
			return wire.ScsiStatusGood
		},
		Write: func(ctx context.Context, blockAddress uint64, buf []byte, blockCount uint32, sense *iface.Sense) uint8 {
			off := blockAddress * testBlockLength
			length := uint64(blockCount) * testBlockLength
			copy(data[off:off+length], buf)
			return wire.ScsiStatusGood
		},
	}
}

func readRequest(hint uint64, lba uint64, blockCount uint32) wire.Request {
	req := wire.Request{Hint: hint, Kind: wire.KindRead}
	req.Read.BlockAddress = lba
	req.Read.Length = blockCount
	return req
}

func TestDispatchReadOnlyLUNRejectsWrite(t *testing.T) {
	ft := transport.NewFakeTransport()
	data := make([]byte, 8*512)

	p := &Pool{
		Transport:   ft,
		BlockLength: testBlockLength,
		Interface: &iface.Interface{
			Read: memoryInterface(t, data).Read,
		},
	}
	require.NoError(t, p.Start(1))

	ft.Feed(readRequest(1, 0, 2))
	writeReq := wire.Request{Hint: 2, Kind: wire.KindWrite}
	writeReq.Write.BlockAddress = 0
	writeReq.Write.Length = 1
	ft.Feed(writeReq)

	waitForResponses(t, ft, 2)
	require.NoError(t, ft.Shutdown())
	require.NoError(t, p.Wait())

	resps := ft.Responses()
	require.Len(t, resps, 2)
	require.Equal(t, uint8(wire.ScsiStatusGood), resps[0].Status.ScsiStatus)
	require.Equal(t, uint8(wire.ScsiStatusCheckCondition), resps[1].Status.ScsiStatus)
	require.Equal(t, byte(wire.SenseKeyIllegalRequest), resps[1].Status.SenseData[2]&0x0F)
}

func TestDispatchFaultTranslation(t *testing.T) {
	ft := transport.NewFakeTransport()
	p := &Pool{
		Transport:   ft,
		BlockLength: testBlockLength,
		Interface: &iface.Interface{
			Read: func(ctx context.Context, blockAddress uint64, buf []byte, blockCount uint32, sense *iface.Sense) uint8 {
				sense[0] = wire.SenseResponseCodeCurrent
				sense[2] = wire.SenseKeyMediumError
				sense[12] = wire.AscUnrecoveredReadError
				sense[0] |= 0x80
				sense[3] = 0
				sense[4] = 0
				sense[5] = 0
				sense[6] = 7
				return wire.ScsiStatusCheckCondition
			},
		},
	}
	require.NoError(t, p.Start(1))
	ft.Feed(readRequest(1, 7, 1))

	waitForResponses(t, ft, 1)
	require.NoError(t, ft.Shutdown())
	require.NoError(t, p.Wait())

	resp := ft.Responses()[0]
	require.Equal(t, uint8(wire.ScsiStatusCheckCondition), resp.Status.ScsiStatus)
	require.Equal(t, byte(wire.SenseKeyMediumError), resp.Status.SenseData[2]&0x0F)
	require.Equal(t, byte(wire.AscUnrecoveredReadError), resp.Status.SenseData[12])
	require.True(t, resp.Status.SenseData[0]&0x80 != 0)
	require.Equal(t, byte(7), resp.Status.SenseData[6])
}

func TestDispatchThreadCountFanOut(t *testing.T) {
	ft := transport.NewFakeTransport()
	p := &Pool{Transport: ft}
	require.NoError(t, p.Start(4))

	require.Eventually(t, func() bool {
		return p.SpawnedCount() == 4
	}, time.Second, time.Millisecond)

	require.NoError(t, ft.Shutdown())
	require.NoError(t, p.Wait())
}

func TestDispatchErrorLatching(t *testing.T) {
	ft := transport.NewFakeTransport()
	ft.FailAfter(0)
	p := &Pool{Transport: ft}
	require.NoError(t, p.Start(3))

	err := p.Wait()
	require.Error(t, err)
	require.True(t, transport.IsKind(err, transport.ErrKindFatal))
}

func TestDispatchDebugLogGating(t *testing.T) {
	ft := transport.NewFakeTransport()
	logger := &recordingLogger{}
	data := make([]byte, 8*512)

	p := &Pool{
		Transport:   ft,
		BlockLength: testBlockLength,
		Interface:   memoryInterface(t, data),
		Logger:      logger,
	}
	p.DebugLog.Store(1 << uint32(wire.KindWrite))
	require.NoError(t, p.Start(1))

	ft.Feed(readRequest(1, 0, 1))
	writeReq := wire.Request{Hint: 2, Kind: wire.KindWrite}
	writeReq.Write.BlockAddress = 0
	writeReq.Write.Length = 1
	ft.Feed(writeReq)

	waitForResponses(t, ft, 2)
	require.NoError(t, ft.Shutdown())
	require.NoError(t, p.Wait())

	require.Equal(t, 2, logger.count())
}

// TestDispatchReadSizesBufferByBytesNotBlocks guards against sizing the
// handler buffer from a raw block count: a 2-block read at a 512-byte
// block length must deliver all 1024 bytes, not just the first 2.
func TestDispatchReadSizesBufferByBytesNotBlocks(t *testing.T) {
	ft := transport.NewFakeTransport()
	data := make([]byte, 8*512)
	for i := range data {
		data[i] = byte(i)
	}

	p := &Pool{
		Transport:   ft,
		BlockLength: testBlockLength,
		Interface:   memoryInterface(t, data),
	}
	require.NoError(t, p.Start(1))

	reqBuf := make([]byte, 1024)
	req := readRequest(1, 0, 2)
	req.Buffer = reqBuf
	ft.Feed(req)

	waitForResponses(t, ft, 1)
	require.NoError(t, ft.Shutdown())
	require.NoError(t, p.Wait())

	resp := ft.Responses()[0]
	require.Equal(t, uint8(wire.ScsiStatusGood), resp.Status.ScsiStatus)
	require.Equal(t, data[:1024], resp.Buffer)
}

func waitForResponses(t *testing.T, ft *transport.FakeTransport, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(ft.Responses()) >= n
	}, time.Second, time.Millisecond)
}
