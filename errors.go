package sud

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/ehrlich-b/go-sud/internal/transport"
)

// Error is a structured error carrying the taxonomy of spec.md §7:
// parameter errors and resource errors (synchronous from Create),
// transport errors (latched at runtime by the dispatcher). SCSI
// status/sense is deliberately never represented as an Error — it
// travels back over the wire to the kernel, not through this type.
type Error struct {
	Op    string // operation that failed, e.g. "create", "provision"
	Code  ErrorCode
	Errno syscall.Errno // kernel errno, 0 if not applicable
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		if e.Errno != 0 {
			return fmt.Sprintf("sud: %s: %s (errno=%d)", e.Op, msg, e.Errno)
		}
		return fmt.Sprintf("sud: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("sud: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode is the high-level category of an Error.
type ErrorCode string

const (
	// Parameter errors (create-time).
	ErrCodeInvalidParameters ErrorCode = "invalid parameters"
	ErrCodeOversizeTransfer  ErrorCode = "oversize transfer length"
	ErrCodeInvalidASCII      ErrorCode = "invalid ASCII field"

	// Resource errors (create-time).
	ErrCodeOutOfMemory      ErrorCode = "out of memory"
	ErrCodeTransportOpen    ErrorCode = "transport open failure"
	ErrCodeNoFreeLUN        ErrorCode = "no free LUN"
	ErrCodeAlreadyProvisioned ErrorCode = "guid already provisioned"

	// Transport errors (runtime, latched).
	ErrCodeTransportFatal     ErrorCode = "fatal transport error"
	ErrCodeTransportCancelled ErrorCode = "transport cancelled"
)

func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

func NewErrorWithErrno(op string, code ErrorCode, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error()}
}

// WrapError wraps inner with op, mapping syscall errnos to a Code where
// possible.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if se, ok := inner.(*Error); ok {
		return &Error{Op: op, Code: se.Code, Errno: se.Errno, Msg: se.Msg, Inner: se.Inner}
	}
	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{Op: op, Code: mapErrnoToCode(errno), Errno: errno, Msg: errno.Error(), Inner: inner}
	}
	if te, ok := inner.(*transport.Error); ok {
		return &Error{Op: op, Code: mapTransportKindToCode(te.Kind), Msg: te.Error(), Inner: inner}
	}
	return &Error{Op: op, Code: ErrCodeTransportFatal, Msg: inner.Error(), Inner: inner}
}

func mapTransportKindToCode(kind transport.ErrorKind) ErrorCode {
	switch kind {
	case transport.ErrKindNotFound:
		return ErrCodeTransportOpen
	case transport.ErrKindAccessDenied:
		return ErrCodeTransportOpen
	case transport.ErrKindInvalidParameter:
		return ErrCodeInvalidParameters
	case transport.ErrKindExhausted:
		return ErrCodeNoFreeLUN
	case transport.ErrKindAlreadyExists:
		return ErrCodeAlreadyProvisioned
	case transport.ErrKindCancelled:
		return ErrCodeTransportCancelled
	default:
		return ErrCodeTransportFatal
	}
}

func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.EINVAL, syscall.E2BIG:
		return ErrCodeInvalidParameters
	case syscall.ENOSPC:
		return ErrCodeNoFreeLUN
	case syscall.EEXIST:
		return ErrCodeAlreadyProvisioned
	case syscall.ENOMEM:
		return ErrCodeOutOfMemory
	case syscall.EPERM, syscall.EACCES, syscall.ENOENT:
		return ErrCodeTransportOpen
	case syscall.ECANCELED, syscall.EINTR:
		return ErrCodeTransportCancelled
	default:
		return ErrCodeTransportFatal
	}
}

// IsCode reports whether err is (or wraps) a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
