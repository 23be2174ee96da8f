//go:build linux

package transport

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-sud/internal/constants"
	"github.com/ehrlich-b/go-sud/internal/logging"
	"github.com/ehrlich-b/go-sud/internal/wire"
)

// ioctl direction/size encoding, Linux's <asm-generic/ioctl.h> macros.
// None of x/sys/unix exports these as a helper, so they're hand-rolled
// here exactly as marmos91-dittofs's terminal_linux.go hand-rolls TCGETS
// rather than pulling in a dedicated ioctl-number package.
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNrShift) | (size << iocSizeShift)
}

func iowr(typ, nr, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, typ, nr, size)
}

// sudIoctlType is this transport's private ioctl magic number.
const sudIoctlType = 0xE5

var (
	ioctlProvision           = iowr(sudIoctlType, wire.CmdProvision, unsafe.Sizeof(wire.StorageUnitParams{}))
	ioctlUnprovision         = iowr(sudIoctlType, wire.CmdUnprovision, unsafe.Sizeof(wire.Btl{}))
	ioctlList                = iowr(sudIoctlType, wire.CmdList, 0)
	ioctlTransact            = iowr(sudIoctlType, wire.CmdTransact, 0)
	ioctlSetTransactTimeout  = iowr(sudIoctlType, wire.CmdSetTransactTimeout, 0)
	ioctlShutdown            = iowr(sudIoctlType, wire.CmdShutdown, 0)
)

// IoctlTransport is the Linux kernel-backed Transport: each operation is
// exactly one ioctl on a long-lived device handle, per spec.md §4.1.
type IoctlTransport struct {
	fd     int
	logger *logging.Logger
}

// NewIoctlTransport constructs an unopened IoctlTransport.
func NewIoctlTransport() *IoctlTransport {
	return &IoctlTransport{fd: -1, logger: logging.Default()}
}

func (t *IoctlTransport) Open(hwid string) error {
	path := devicePath(hwid)

	var lastErr error
	for attempt := 0; attempt < constants.CharDeviceMaxRetries; attempt++ {
		fd, err := unix.Open(path, unix.O_RDWR, 0)
		if err == nil {
			t.fd = fd
			return nil
		}
		lastErr = err
		if err == unix.ENOENT {
			time.Sleep(constants.CharDeviceRetryDelay)
			continue
		}
		break
	}

	if lastErr == unix.ENOENT {
		return newError("open", ErrKindNotFound, lastErr)
	}
	if lastErr == unix.EACCES || lastErr == unix.EPERM {
		return newError("open", ErrKindAccessDenied, lastErr)
	}
	return newError("open", ErrKindUnknown, lastErr)
}

func devicePath(hwid string) string {
	return fmt.Sprintf("/dev/sud-%s", hwid)
}

func (t *IoctlTransport) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(t.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (t *IoctlTransport) Provision(params *wire.StorageUnitParams) (wire.Btl, error) {
	buf, err := wire.Marshal(params)
	if err != nil {
		return wire.Btl{}, newError("provision", ErrKindInvalidParameter, err)
	}

	out := make([]byte, wire.SizeOfBtl)
	req := ioctlProvisionReq{in: buf, out: out}

	if err := t.ioctl(ioctlProvision, unsafe.Pointer(&req)); err != nil {
		return wire.Btl{}, classifyProvisionError(err)
	}

	var btl wire.Btl
	if err := wire.Unmarshal(out, &btl); err != nil {
		return wire.Btl{}, newError("provision", ErrKindUnknown, err)
	}
	return btl, nil
}

// ioctlProvisionReq is the in/out payload bridging the kernel's
// two-buffer PROVISION ioctl (params in, Btl out) to a single pointer
// argument.
type ioctlProvisionReq struct {
	in  []byte
	out []byte
}

func classifyProvisionError(err error) error {
	switch err {
	case unix.EINVAL:
		return newError("provision", ErrKindInvalidParameter, err)
	case unix.ENOSPC:
		return newError("provision", ErrKindExhausted, err)
	case unix.EEXIST:
		return newError("provision", ErrKindAlreadyExists, err)
	default:
		return newError("provision", ErrKindUnknown, err)
	}
}

func (t *IoctlTransport) Unprovision(btl wire.Btl) error {
	buf, err := wire.Marshal(&btl)
	if err != nil {
		return newError("unprovision", ErrKindInvalidParameter, err)
	}
	if err := t.ioctl(ioctlUnprovision, unsafe.Pointer(&buf[0])); err != nil {
		if err == unix.ENODEV || err == unix.ENOENT {
			return newError("unprovision", ErrKindNotFound, err)
		}
		return newError("unprovision", ErrKindUnknown, err)
	}
	return nil
}

func (t *IoctlTransport) List() ([]wire.Btl, error) {
	const maxLuns = 256
	out := make([]byte, maxLuns*wire.SizeOfBtl)
	if err := t.ioctl(ioctlList, unsafe.Pointer(&out[0])); err != nil {
		return nil, newError("list", ErrKindUnknown, err)
	}

	var btls []wire.Btl
	for off := 0; off+wire.SizeOfBtl <= len(out); off += wire.SizeOfBtl {
		var btl wire.Btl
		if err := wire.Unmarshal(out[off:off+wire.SizeOfBtl], &btl); err != nil {
			break
		}
		if btl == (wire.Btl{}) {
			continue
		}
		btls = append(btls, btl)
	}
	return btls, nil
}

// transactReq bridges the kernel's TRANSACT ioctl: optional Response in,
// Btl selecting the LUN, Request out.
type transactReq struct {
	btl      wire.Btl
	response []byte
	request  []byte
}

func (t *IoctlTransport) Transact(btl wire.Btl, response *wire.Response) (wire.Request, error) {
	var respBuf []byte
	if response != nil {
		buf, err := wire.Marshal(response)
		if err != nil {
			return wire.Request{}, newError("transact", ErrKindInvalidParameter, err)
		}
		respBuf = buf
	}

	reqBuf := make([]byte, wire.SizeOfRequest)
	req := transactReq{btl: btl, response: respBuf, request: reqBuf}

	if err := t.ioctl(ioctlTransact, unsafe.Pointer(&req)); err != nil {
		return wire.Request{}, classifyTransactError(err)
	}

	var out wire.Request
	if err := wire.Unmarshal(reqBuf, &out); err != nil {
		return wire.Request{}, newError("transact", ErrKindUnknown, err)
	}
	return out, nil
}

func classifyTransactError(err error) error {
	switch err {
	case unix.ECANCELED, unix.EINTR:
		return newError("transact", ErrKindCancelled, err)
	case unix.ENODEV, unix.EIO:
		return newError("transact", ErrKindFatal, err)
	default:
		return newError("transact", ErrKindFatal, err)
	}
}

func (t *IoctlTransport) SubmitResponse(btl wire.Btl, response *wire.Response) error {
	buf, err := wire.Marshal(response)
	if err != nil {
		return newError("submit_response", ErrKindInvalidParameter, err)
	}
	req := transactReq{btl: btl, response: buf, request: nil}
	if err := t.ioctl(ioctlTransact, unsafe.Pointer(&req)); err != nil {
		return classifyTransactError(err)
	}
	return nil
}

func (t *IoctlTransport) SetTransactTimeout(btl wire.Btl, ms uint32) error {
	btlBuf, err := wire.Marshal(&btl)
	if err != nil {
		return newError("set_transact_timeout", ErrKindInvalidParameter, err)
	}
	payload := make([]byte, len(btlBuf)+4)
	copy(payload, btlBuf)
	payload[len(btlBuf)] = byte(ms)
	payload[len(btlBuf)+1] = byte(ms >> 8)
	payload[len(btlBuf)+2] = byte(ms >> 16)
	payload[len(btlBuf)+3] = byte(ms >> 24)

	if err := t.ioctl(ioctlSetTransactTimeout, unsafe.Pointer(&payload[0])); err != nil {
		return newError("set_transact_timeout", ErrKindUnknown, err)
	}
	return nil
}

// Shutdown performs the single async-signal-safe operation spec.md §4.5
// requires: a dedicated stop ioctl that unblocks every in-flight and
// future transact on this handle with an error the worker loop
// classifies as cancelled. It issues one syscall and touches no other
// state, so it is safe to call from a signal handler.
func (t *IoctlTransport) Shutdown() error {
	if t.fd < 0 {
		return nil
	}
	return t.ioctl(ioctlShutdown, nil)
}

func (t *IoctlTransport) Close() error {
	if t.fd < 0 {
		return nil
	}
	fd := t.fd
	t.fd = -1
	return os.NewFile(uintptr(fd), "").Close()
}
