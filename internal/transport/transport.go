// Package transport implements the thin client over the kernel transport
// driver described in spec.md §4.1: open/provision/unprovision/list and
// the single blocking transact RPC, plus an in-memory fake used by tests
// and the dispatcher's own unit tests.
package transport

import (
	"errors"
	"fmt"

	"github.com/ehrlich-b/go-sud/internal/wire"
)

// ErrorKind categorizes a transport-level failure the way spec.md §4.1
// and §7 require ("not-found", "access-denied", "invalid-parameter",
// "exhausted", "already-exists", "cancelled").
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	ErrKindNotFound
	ErrKindAccessDenied
	ErrKindInvalidParameter
	ErrKindExhausted
	ErrKindAlreadyExists
	ErrKindCancelled
	ErrKindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not-found"
	case ErrKindAccessDenied:
		return "access-denied"
	case ErrKindInvalidParameter:
		return "invalid-parameter"
	case ErrKindExhausted:
		return "exhausted"
	case ErrKindAlreadyExists:
		return "already-exists"
	case ErrKindCancelled:
		return "cancelled"
	case ErrKindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is the structured error returned by Transport operations.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("transport: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op string, kind ErrorKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}

// Transport is the kernel transport client interface, spec.md §4.1.
// Implementations must make Transact safe to call concurrently from
// every dispatcher worker sharing the same handle.
type Transport interface {
	// Open opens the kernel device associated with hwid.
	Open(hwid string) error

	// Provision submits params and receives the assigned Btl.
	Provision(params *wire.StorageUnitParams) (wire.Btl, error)

	// Unprovision tears down the LUN. Idempotent.
	Unprovision(btl wire.Btl) error

	// List enumerates live LUNs owned by this handle.
	List() ([]wire.Btl, error)

	// Transact submits an optional response (completing an earlier
	// request) and blocks until the next request arrives. A Request with
	// Hint == 0 is a spurious wakeup used during shutdown.
	Transact(btl wire.Btl, response *wire.Response) (wire.Request, error)

	// SubmitResponse submits a deferred response with no paired request,
	// for the send_response path of spec.md §4.4. Kept distinct from
	// Transact so the caller never receives (and silently drops) an
	// unclaimed next request meant for a worker.
	SubmitResponse(btl wire.Btl, response *wire.Response) error

	// SetTransactTimeout sets the per-LUN in-flight timeout.
	SetTransactTimeout(btl wire.Btl, ms uint32) error

	// Shutdown asks the transport to unblock every in-flight and future
	// Transact call with ErrKindCancelled. Idempotent and safe to call
	// from a signal handler (spec.md §4.5): it performs a single handle
	// operation and nothing else.
	Shutdown() error

	// Close releases the transport handle. Must only be called after the
	// dispatcher pool has been fully joined.
	Close() error
}
