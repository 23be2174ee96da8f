package wire

import "unsafe"

// Btl is the bus/target/LUN triple the kernel transport assigns at
// provision time. It is immutable once returned.
type Btl struct {
	Bus    uint8
	Target uint8
	Lun    uint16
}

// Compile-time size check, matches the kernel's packed u32 encoding.
var _ [4]byte = [unsafe.Sizeof(Btl{})]byte{}

// StorageUnitParams is the wire form of the caller-supplied LUN
// parameters submitted with PROVISION.
type StorageUnitParams struct {
	GuidHi                  uint64
	GuidLo                  uint64
	BlockCount              uint64
	BlockLength             uint32
	MaxTransferLength       uint32
	MaxUnmapDescriptorCount uint32
	WriteProtected          bool
	CacheSupported          bool
	UnmapSupported          bool
	EjectDisabled           bool
	ProductId               [16]byte
	ProductRevisionLevel    [4]byte
}

// UnmapDescriptor is one entry of an Unmap request's descriptor array.
type UnmapDescriptor struct {
	BlockAddress uint64
	BlockCount   uint32
}

// Compile-time size check of the in-memory layout: Go pads the trailing
// uint32 to 16 bytes. The wire form is SizeOfUnmapDescriptor (12 bytes),
// written field by field in marshal.go.
var _ [16]byte = [unsafe.Sizeof(UnmapDescriptor{})]byte{}

// MaxUnmapDescriptors bounds the fixed-size descriptor array embedded in
// a Request so the struct has no trailing variable-length tail on the
// wire; callers that need more descriptors split the Unmap into several
// requests. See DESIGN.md for the rationale.
const MaxUnmapDescriptors = 256

// ReadWriteOp carries the operands common to Read and Write requests.
type ReadWriteOp struct {
	BlockAddress    uint64
	Length          uint32
	ForceUnitAccess uint8
	_               [3]byte // padding to keep Address 8-byte aligned
	Address         uint64
}

// FlushOp carries the operands of a Flush request.
type FlushOp struct {
	BlockAddress uint64
	Length       uint32
	_            [4]byte // padding
}

// UnmapOp carries the operands of an Unmap request.
type UnmapOp struct {
	Count       uint32
	_           [4]byte // padding
	Descriptors [MaxUnmapDescriptors]UnmapDescriptor
}

// Request is a single request delivered by TRANSACT. Hint == 0 marks a
// spurious wakeup (no real request attached, Kind is meaningless).
type Request struct {
	Hint  uint64
	Kind  Kind
	_     [4]byte // padding
	Read  ReadWriteOp
	Write ReadWriteOp
	Flush FlushOp
	Unmap UnmapOp

	// Buffer is the in-process stand-in for the kernel-mapped region
	// Read.Address/Write.Address would name over the real transport. It
	// never crosses the ioctl wire (Marshal/Unmarshal ignore it); only
	// FakeTransport threads it through so tests can assert on payload
	// bytes actually moved, not just status/sense.
	Buffer []byte
}

// Status is the SCSI status byte plus fixed-format sense data attached
// to a Response.
type Status struct {
	ScsiStatus uint8
	_          [7]byte // padding
	SenseData  [SenseDataLength]byte
	_          [6]byte // pad SenseData up to 8-byte alignment
}

// Response pairs back to a Request by Hint. Kind is carried for
// sanity-checking by the transport; the core never uses it to redispatch.
type Response struct {
	Hint   uint64
	Kind   Kind
	_      [4]byte // padding
	Status Status

	// Buffer mirrors Request.Buffer for a completed Read: the bytes the
	// handler filled, handed back so an in-process caller (FakeTransport)
	// can observe them. Never marshaled onto the kernel wire.
	Buffer []byte
}
