// Package dispatch implements the multi-threaded request/response
// dispatcher of spec.md §4.3: a set of self-spawning worker goroutines
// sharing one Transport handle, each looping over transact calls and
// feeding requests to a user handler table.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ehrlich-b/go-sud/internal/iface"
	"github.com/ehrlich-b/go-sud/internal/opctx"
	"github.com/ehrlich-b/go-sud/internal/sensefmt"
	"github.com/ehrlich-b/go-sud/internal/transport"
	"github.com/ehrlich-b/go-sud/internal/wire"
)

// Pool is the dispatcher pool owned by a storage unit. It has no
// knowledge of the root sud.StorageUnit type — the dependency runs the
// other way, avoiding the import cycle the teacher's
// internal/interfaces package exists to break.
type Pool struct {
	Transport transport.Transport
	Btl       wire.Btl
	// BlockLength is the LUN's logical block size in bytes. Read/Write
	// Length and Unmap descriptor BlockCount fields are block counts,
	// not byte counts; BlockLength converts between them for buffer
	// sizing and instrumentation.
	BlockLength uint32
	Interface   *iface.Interface
	Observer    iface.Observer
	Logger      iface.Logger

	// DebugLog is read atomically before every request/response log
	// line, so StorageUnit.SetDebugLog can change it while the
	// dispatcher is running without synchronizing with it.
	DebugLog atomic.Uint32

	wg        sync.WaitGroup
	spawned   atomic.Int32
	errLatch  ErrorLatch
	started   atomic.Bool
}

// Start spawns workers until exactly n are running, per spec.md §4.3's
// self-spawning fan-out: each worker, before entering its transact
// loop, decrements a shared remaining-count and spawns one sibling if
// the count is still positive. n must be >= 1.
func (p *Pool) Start(n int) error {
	if n < 1 {
		n = 1
	}
	if !p.started.CompareAndSwap(false, true) {
		return nil
	}

	remaining := int32(n)
	p.wg.Add(1)
	go p.spawnChain(&remaining)
	return nil
}

func (p *Pool) spawnChain(remaining *int32) {
	defer p.wg.Done()

	if left := atomic.AddInt32(remaining, -1); left >= 1 {
		p.wg.Add(1)
		go p.spawnChain(remaining)
	}

	p.runLoop()
}

// Wait blocks until every worker has exited, then returns the latched
// DispatcherError (nil if the pool exited cleanly, which only happens
// via Shutdown).
func (p *Pool) Wait() error {
	p.wg.Wait()
	return p.errLatch.Get()
}

// Shutdown asks the transport to unblock every worker's in-flight and
// future Transact calls. See transport.Transport.Shutdown for the
// async-signal-safety contract this preserves.
func (p *Pool) Shutdown() error {
	return p.Transport.Shutdown()
}

// SpawnedCount returns the number of workers that have entered their
// transact loop so far. Used by tests to verify spec.md §8 property 5.
func (p *Pool) SpawnedCount() int {
	return int(p.spawned.Load())
}

// DispatcherError returns the latched transport error, if any.
func (p *Pool) DispatcherError() error {
	return p.errLatch.Get()
}

// LatchError records err as the dispatcher error if none is latched
// yet. Used by the deferred-completion send-response path, which can
// fail outside of any worker's loop (spec.md §4.4).
func (p *Pool) LatchError(err error) {
	p.errLatch.Set(err)
}

func (p *Pool) runLoop() {
	p.spawned.Add(1)

	var pendingResponse *wire.Response

	for {
		req, err := p.Transport.Transact(p.Btl, pendingResponse)
		pendingResponse = nil

		if err != nil {
			p.errLatch.Set(err)
			return
		}

		if req.Hint == 0 {
			continue
		}

		if shouldLog(p.DebugLog.Load(), req.Kind) && p.Logger != nil {
			p.Logger.Debug("dispatching request", "hint", req.Hint, "kind", req.Kind.String())
		}

		resp := p.dispatchOne(req)

		if shouldLog(p.DebugLog.Load(), resp.Kind) && p.Logger != nil {
			p.Logger.Debug("response ready", "hint", resp.Hint, "status", resp.Status.ScsiStatus)
		}

		if resp.Status.ScsiStatus == wire.StatusPending {
			// Handler took over completion; this worker submits nothing
			// for this hint. Its next Transact call carries no response.
			continue
		}
		pendingResponse = &resp
	}
}

func shouldLog(mask uint32, kind wire.Kind) bool {
	return mask&(1<<uint32(kind)) != 0
}

// dispatchOne invokes the matching handler for req and builds the
// Response, spec.md §4.3 step e-f.
func (p *Pool) dispatchOne(req wire.Request) wire.Response {
	ctx := opctx.WithOpContext(context.Background(), opctx.OpContext{Hint: req.Hint, Kind: uint32(req.Kind)})

	resp := wire.Response{Hint: req.Hint, Kind: req.Kind}
	start := time.Now()

	var status uint8
	var sense [wire.SenseDataLength]byte
	var bytes uint64

	switch req.Kind {
	case wire.KindRead:
		if p.Interface == nil || p.Interface.Read == nil {
			status, sense = illegalRequest()
		} else {
			length := uint64(req.Read.Length) * uint64(p.BlockLength)
			buf, pooled := p.acquireBuffer(req.Buffer, length)
			status = p.Interface.Read(ctx, req.Read.BlockAddress, buf, req.Read.Length, &sense)
			bytes = length
			if pooled {
				PutBuffer(buf)
			} else {
				// buf is the caller's own backing array (the in-process
				// stand-in for a kernel-mapped region); safe to hand back
				// on the response since nothing recycles it.
				resp.Buffer = buf
			}
		}
		p.observeRead(bytes, start, status)

	case wire.KindWrite:
		if p.Interface == nil || p.Interface.Write == nil {
			status, sense = illegalRequest()
		} else {
			length := uint64(req.Write.Length) * uint64(p.BlockLength)
			buf, pooled := p.acquireBuffer(req.Buffer, length)
			status = p.Interface.Write(ctx, req.Write.BlockAddress, buf, req.Write.Length, &sense)
			bytes = length
			if pooled {
				PutBuffer(buf)
			}
		}
		p.observeWrite(bytes, start, status)

	case wire.KindFlush:
		if p.Interface == nil || p.Interface.Flush == nil {
			status, sense = illegalRequest()
		} else {
			status = p.Interface.Flush(ctx, req.Flush.BlockAddress, req.Flush.Length, &sense)
		}
		p.observeFlush(start, status)

	case wire.KindUnmap:
		if p.Interface == nil || p.Interface.Unmap == nil {
			status, sense = illegalRequest()
		} else {
			descs := make([]iface.UnmapDescriptor, req.Unmap.Count)
			for i := uint32(0); i < req.Unmap.Count; i++ {
				descs[i] = iface.UnmapDescriptor{
					BlockAddress: req.Unmap.Descriptors[i].BlockAddress,
					BlockCount:   req.Unmap.Descriptors[i].BlockCount,
				}
				bytes += uint64(req.Unmap.Descriptors[i].BlockCount) * uint64(p.BlockLength)
			}
			status = p.Interface.Unmap(ctx, descs, &sense)
		}
		p.observeUnmap(bytes, start, status)

	default:
		status, sense = illegalRequest()
	}

	resp.Status.ScsiStatus = status
	resp.Status.SenseData = sense
	return resp
}

// acquireBuffer returns a buffer of exactly length bytes for a Read or
// Write handler call. If the request already carries a buffer of the
// right size (FakeTransport's stand-in for a kernel-mapped region), it
// is used directly and pooled is false; otherwise one is drawn from the
// pool and pooled is true, so the caller knows to return it afterward.
func (p *Pool) acquireBuffer(reqBuffer []byte, length uint64) (buf []byte, pooled bool) {
	if uint64(len(reqBuffer)) == length {
		return reqBuffer, false
	}
	return GetBuffer(uint32(length)), true
}

func illegalRequest() (uint8, [wire.SenseDataLength]byte) {
	return wire.ScsiStatusCheckCondition, sensefmt.IllegalRequest()
}

func (p *Pool) observer() iface.Observer {
	if p.Observer != nil {
		return p.Observer
	}
	return iface.NoOpObserver{}
}

func (p *Pool) observeRead(bytes uint64, start time.Time, status uint8) {
	p.observer().ObserveRead(bytes, uint64(time.Since(start).Nanoseconds()), status == wire.ScsiStatusGood)
}

func (p *Pool) observeWrite(bytes uint64, start time.Time, status uint8) {
	p.observer().ObserveWrite(bytes, uint64(time.Since(start).Nanoseconds()), status == wire.ScsiStatusGood)
}

func (p *Pool) observeFlush(start time.Time, status uint8) {
	p.observer().ObserveFlush(uint64(time.Since(start).Nanoseconds()), status == wire.ScsiStatusGood)
}

func (p *Pool) observeUnmap(bytes uint64, start time.Time, status uint8) {
	p.observer().ObserveUnmap(bytes, uint64(time.Since(start).Nanoseconds()), status == wire.ScsiStatusGood)
}
