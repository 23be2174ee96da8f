//go:build !linux

package transport

import (
	"errors"

	"github.com/ehrlich-b/go-sud/internal/wire"
)

var errUnsupportedPlatform = errors.New("transport: ioctl transport is only available on linux")

// IoctlTransport is a stub on non-Linux platforms, mirroring the
// teacher's iouring_stub.go split: the real kernel transport only
// exists on Linux, but the package must still build everywhere tests
// run (the FakeTransport covers those).
type IoctlTransport struct{}

func NewIoctlTransport() *IoctlTransport { return &IoctlTransport{} }

func (t *IoctlTransport) Open(hwid string) error { return errUnsupportedPlatform }

func (t *IoctlTransport) Provision(params *wire.StorageUnitParams) (wire.Btl, error) {
	return wire.Btl{}, errUnsupportedPlatform
}

func (t *IoctlTransport) Unprovision(btl wire.Btl) error { return errUnsupportedPlatform }

func (t *IoctlTransport) List() ([]wire.Btl, error) { return nil, errUnsupportedPlatform }

func (t *IoctlTransport) Transact(btl wire.Btl, response *wire.Response) (wire.Request, error) {
	return wire.Request{}, errUnsupportedPlatform
}

func (t *IoctlTransport) SubmitResponse(btl wire.Btl, response *wire.Response) error {
	return errUnsupportedPlatform
}

func (t *IoctlTransport) SetTransactTimeout(btl wire.Btl, ms uint32) error {
	return errUnsupportedPlatform
}

func (t *IoctlTransport) Shutdown() error { return nil }

func (t *IoctlTransport) Close() error { return nil }
