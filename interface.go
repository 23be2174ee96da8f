package sud

import (
	"context"

	"github.com/ehrlich-b/go-sud/internal/iface"
	"github.com/ehrlich-b/go-sud/internal/wire"
)

// StatusPending is the sentinel SCSI status byte a handler stores to
// defer completion: the worker submits no response for this request,
// and the client later calls StorageUnit.SendResponse with the same
// Hint via the operation context.
const StatusPending = wire.StatusPending

// UnmapDescriptor is one (block address, block count) pair of an
// Unmap request's descriptor array.
type UnmapDescriptor = iface.UnmapDescriptor

// SenseData is the fixed-format, 18-byte SCSI sense buffer a handler
// fills in when it returns a non-GOOD status.
type SenseData = [wire.SenseDataLength]byte

// Interface is the handler table a client installs on a StorageUnit.
// Any field may be left nil; requests of that Kind are then answered
// with CHECK_CONDITION / ILLEGAL_REQUEST, per spec.md §4.3.
type Interface struct {
	// Read services a read of blockCount blocks starting at
	// blockAddress into buf, returning the SCSI status byte.
	Read func(ctx context.Context, blockAddress uint64, buf []byte, blockCount uint32, sense *SenseData) uint8

	// Write services a write of blockCount blocks starting at
	// blockAddress, consuming bytes from buf.
	Write func(ctx context.Context, blockAddress uint64, buf []byte, blockCount uint32, sense *SenseData) uint8

	// Flush commits any cached data for the given block range.
	Flush func(ctx context.Context, blockAddress uint64, blockCount uint32, sense *SenseData) uint8

	// Unmap releases the backing storage for each descriptor.
	Unmap func(ctx context.Context, descriptors []UnmapDescriptor, sense *SenseData) uint8
}

func (i *Interface) toIface() *iface.Interface {
	if i == nil {
		return &iface.Interface{}
	}
	return &iface.Interface{
		Read:  i.Read,
		Write: i.Write,
		Flush: i.Flush,
		Unmap: i.Unmap,
	}
}
