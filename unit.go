package sud

import (
	"context"
	"sync/atomic"

	"github.com/ehrlich-b/go-sud/internal/dispatch"
	"github.com/ehrlich-b/go-sud/internal/iface"
	"github.com/ehrlich-b/go-sud/internal/logging"
	"github.com/ehrlich-b/go-sud/internal/opctx"
	"github.com/ehrlich-b/go-sud/internal/transport"
	"github.com/ehrlich-b/go-sud/internal/wire"
)

// StorageUnit owns a provisioned LUN, per spec.md §3/§4.2: the
// transport handle, its Btl, the installed handler table, a borrowed
// user context, a debug-log mask, and the dispatcher pool state.
// Guid, Btl and Interface are frozen once Create returns.
type StorageUnit struct {
	transport transport.Transport
	btl       wire.Btl
	guidHi    uint64
	guidLo    uint64
	iface     *Interface
	pool      *dispatch.Pool
	logger    *logging.Logger

	userContext atomic.Pointer[any]
}

// Create opens the transport, provisions a LUN with params, and
// returns a StorageUnit ready to dispatch. handlers may be nil; an
// empty handler table is then installed and every request gets
// CHECK_CONDITION / ILLEGAL_REQUEST, per §4.2.
func Create(hwid string, params StorageUnitParams, handlers *Interface) (*StorageUnit, error) {
	t := transport.NewIoctlTransport()
	if err := t.Open(hwid); err != nil {
		return nil, WrapError("create", err)
	}
	return createWithTransport(t, params, handlers)
}

// createWithTransport provisions a LUN over an already-open transport.
// Split out from Create so tests can substitute an in-memory
// transport.FakeTransport for the ioctl-backed transport.IoctlTransport.
func createWithTransport(t transport.Transport, params StorageUnitParams, handlers *Interface) (*StorageUnit, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if handlers == nil {
		handlers = &Interface{}
	}

	wp := params.toWire()
	btl, err := t.Provision(&wp)
	if err != nil {
		_ = t.Close()
		return nil, WrapError("create", err)
	}

	u := &StorageUnit{
		transport: t,
		btl:       btl,
		guidHi:    params.GuidHi,
		guidLo:    params.GuidLo,
		iface:     handlers,
		logger:    logging.Default(),
	}

	u.pool = &dispatch.Pool{
		Transport:   t,
		Btl:         btl,
		BlockLength: params.BlockLength,
		Interface:   handlers.toIface(),
		Observer:    iface.NoOpObserver{},
		Logger:      u.logger,
	}

	return u, nil
}

// Delete unprovisions the LUN and closes the transport. The dispatcher
// must already be stopped and joined via WaitDispatcher, per §4.2's
// precondition.
func (u *StorageUnit) Delete() error {
	if err := u.transport.Unprovision(u.btl); err != nil {
		return WrapError("delete", err)
	}
	if err := u.transport.Close(); err != nil {
		return WrapError("delete", err)
	}
	return nil
}

// Btl returns the bus/target/LUN triple assigned at Create.
func (u *StorageUnit) Btl() (bus, target uint8, lun uint16) {
	return u.btl.Bus, u.btl.Target, u.btl.Lun
}

// SetDebugLog sets the 32-bit mask controlling which request/response
// kinds are logged; bit i set logs kind i (spec.md §3).
func (u *StorageUnit) SetDebugLog(mask uint32) {
	u.pool.DebugLog.Store(mask)
}

// GetUserContext returns the opaque client pointer installed by
// SetUserContext, or nil if none has been set.
func (u *StorageUnit) GetUserContext() any {
	p := u.userContext.Load()
	if p == nil {
		return nil
	}
	return *p
}

// SetUserContext installs an opaque, client-owned pointer the core
// never dereferences.
func (u *StorageUnit) SetUserContext(v any) {
	u.userContext.Store(&v)
}

// GetInterface returns the handler table installed at Create.
func (u *StorageUnit) GetInterface() *Interface {
	return u.iface
}

// SetObserver installs the instrumentation sink the dispatcher
// reports operation outcomes to. Must be called before StartDispatcher.
func (u *StorageUnit) SetObserver(obs Observer) {
	if obs == nil {
		obs = iface.NoOpObserver{}
	}
	u.pool.Observer = obs
}

// StartDispatcher spawns n workers (DefaultThreadCount() if n == 0)
// to service requests, per spec.md §4.3/§8 property 5 and 7.
func (u *StorageUnit) StartDispatcher(n int) error {
	if n == 0 {
		n = dispatch.DefaultThreadCount()
	}
	if err := u.pool.Start(n); err != nil {
		return WrapError("start_dispatcher", err)
	}
	u.pool.Observer.ObserveWorkerCount(n)
	return nil
}

// WaitDispatcher blocks until every worker has exited and returns the
// latched DispatcherError, if any (spec.md §7).
func (u *StorageUnit) WaitDispatcher() error {
	if err := u.pool.Wait(); err != nil {
		return WrapError("wait_dispatcher", err)
	}
	return nil
}

// DispatcherError returns the latched transport error without
// blocking, or nil if none has been latched yet.
func (u *StorageUnit) DispatcherError() error {
	if err := u.pool.DispatcherError(); err != nil {
		return WrapError("wait_dispatcher", err)
	}
	return nil
}

// SpawnedWorkerCount reports how many dispatcher workers have entered
// their transact loop so far.
func (u *StorageUnit) SpawnedWorkerCount() int {
	return u.pool.SpawnedCount()
}

// Shutdown asks the dispatcher to exit: it cancels in-flight and
// future transacts. Idempotent and safe to call from a signal handler
// (spec.md §4.5).
func (u *StorageUnit) Shutdown() error {
	return u.pool.Shutdown()
}

// SendResponse submits a deferred completion for a handler that
// earlier returned StatusPending, per spec.md §4.4. Errors latch into
// DispatcherError identically to the worker loop; SendResponse itself
// never returns a value the caller must check, matching §7's
// "send_response does not return a value" policy — callers that need
// to observe the failure should poll DispatcherError.
func (u *StorageUnit) SendResponse(hint uint64, kind uint32, status uint8, sense SenseData) {
	resp := &wire.Response{
		Hint: hint,
		Kind: wire.Kind(kind),
		Status: wire.Status{
			ScsiStatus: status,
			SenseData:  sense,
		},
	}
	if err := u.transport.SubmitResponse(u.btl, resp); err != nil {
		u.pool.LatchError(err)
	}
}

// OpContextFromContext retrieves the current request's Hint/Kind from
// ctx, for handlers that need to stash identity for deferred
// completion (spec.md §4.4).
func OpContextFromContext(ctx context.Context) (hint uint64, kind uint32, ok bool) {
	oc, present := opctx.FromContext(ctx)
	if !present {
		return 0, 0, false
	}
	return oc.Hint, oc.Kind, true
}
