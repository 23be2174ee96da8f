package transport

import (
	"sync"

	"github.com/ehrlich-b/go-sud/internal/wire"
)

// FakeTransport is an in-memory Transport used by unit tests and the
// end-to-end scenarios of spec.md §8, grounded on the teacher's
// queue.NewStubRunner/stubLoop fake transport.
type FakeTransport struct {
	mu   sync.Mutex
	cond *sync.Cond

	btl     wire.Btl
	opened  bool
	pending []wire.Request

	responses []wire.Response
	delivered int

	shutdown bool

	// failEnabled/failAfter make the transport return a fatal error once
	// at least failAfter responses have been delivered, modeling S6 and
	// §8 property 6. failAfter == 0 fails on the very first Transact call.
	failEnabled bool
	failAfter   int
}

// NewFakeTransport returns a FakeTransport ready to Open.
func NewFakeTransport() *FakeTransport {
	ft := &FakeTransport{btl: wire.Btl{Bus: 0, Target: 0, Lun: 1}}
	ft.cond = sync.NewCond(&ft.mu)
	return ft
}

// FailAfter configures every Transact call to fail with a fatal error
// once n responses have been delivered (counting a response submitted by
// that same call), for exercising §8 property 6 and scenario S6.
func (f *FakeTransport) FailAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failEnabled = true
	f.failAfter = n
}

// Feed enqueues a request for a future Transact call to deliver.
func (f *FakeTransport) Feed(req wire.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, req)
	f.cond.Broadcast()
}

// Responses returns every response submitted so far, in submission order.
func (f *FakeTransport) Responses() []wire.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]wire.Response, len(f.responses))
	copy(out, f.responses)
	return out
}

func (f *FakeTransport) Open(hwid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = true
	return nil
}

func (f *FakeTransport) Provision(params *wire.StorageUnitParams) (wire.Btl, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if params.BlockLength == 0 {
		return wire.Btl{}, newError("provision", ErrKindInvalidParameter, nil)
	}
	return f.btl, nil
}

func (f *FakeTransport) Unprovision(btl wire.Btl) error {
	return nil
}

func (f *FakeTransport) List() ([]wire.Btl, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []wire.Btl{f.btl}, nil
}

// Transact blocks until a request has been Fed, Shutdown is called, or
// the configured failAfter threshold is reached.
func (f *FakeTransport) Transact(btl wire.Btl, response *wire.Response) (wire.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if response != nil {
		f.responses = append(f.responses, *response)
		f.delivered++
	}

	if f.failEnabled && f.delivered >= f.failAfter {
		return wire.Request{}, newError("transact", ErrKindFatal, nil)
	}

	for len(f.pending) == 0 && !f.shutdown {
		f.cond.Wait()
	}

	if f.shutdown {
		return wire.Request{}, newError("transact", ErrKindCancelled, nil)
	}

	req := f.pending[0]
	f.pending = f.pending[1:]
	return req, nil
}

func (f *FakeTransport) SubmitResponse(btl wire.Btl, response *wire.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shutdown {
		return newError("submit_response", ErrKindCancelled, nil)
	}
	f.responses = append(f.responses, *response)
	f.delivered++
	return nil
}

func (f *FakeTransport) SetTransactTimeout(btl wire.Btl, ms uint32) error {
	return nil
}

// Shutdown wakes every blocked Transact call with ErrKindCancelled.
// Idempotent, and safe to call concurrently with Transact/Feed.
func (f *FakeTransport) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown = true
	f.cond.Broadcast()
	return nil
}

func (f *FakeTransport) Close() error {
	return nil
}
