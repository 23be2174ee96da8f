package wire

import "encoding/binary"

// Wire sizes. These are independent of Go's in-memory struct layout
// (padding, alignment) — they are the literal byte counts the kernel
// transport expects, mirroring how the teacher's uapi package pins
// kernel struct sizes with compile-time checks rather than trusting
// unsafe.Sizeof on the Go struct directly.
const (
	SizeOfBtl                   = 4
	SizeOfUnmapDescriptor       = 12
	SizeOfStorageUnitParams     = 64
	SizeOfReadWriteOp           = 24
	SizeOfFlushOp               = 16
	sizeOfUnmapOpHeader         = 8
	SizeOfUnmapOp               = sizeOfUnmapOpHeader + MaxUnmapDescriptors*SizeOfUnmapDescriptor
	SizeOfRequest               = 16 + SizeOfReadWriteOp*2 + SizeOfFlushOp + SizeOfUnmapOp
	SizeOfStatus                = 32
	SizeOfResponse              = 16 + SizeOfStatus
)

// MarshalError is a sentinel error type for wire-level decode failures,
// named and shaped the way the teacher's uapi package reports them.
type MarshalError string

func (e MarshalError) Error() string { return string(e) }

const (
	ErrInsufficientData MarshalError = "wire: insufficient data for unmarshal"
	ErrUnsupportedType  MarshalError = "wire: unsupported type for marshal"
)

// Marshal converts a wire struct to its on-wire byte representation.
func Marshal(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case *Btl:
		return marshalBtl(val), nil
	case *StorageUnitParams:
		return marshalStorageUnitParams(val), nil
	case *Request:
		return marshalRequest(val), nil
	case *Response:
		return marshalResponse(val), nil
	case *UnmapDescriptor:
		return marshalUnmapDescriptor(val), nil
	default:
		return nil, ErrUnsupportedType
	}
}

// Unmarshal decodes a wire struct from its on-wire byte representation.
func Unmarshal(data []byte, v interface{}) error {
	switch val := v.(type) {
	case *Btl:
		return unmarshalBtl(data, val)
	case *StorageUnitParams:
		return unmarshalStorageUnitParams(data, val)
	case *Request:
		return unmarshalRequest(data, val)
	case *Response:
		return unmarshalResponse(data, val)
	case *UnmapDescriptor:
		return unmarshalUnmapDescriptor(data, val)
	default:
		return ErrUnsupportedType
	}
}

func marshalBtl(b *Btl) []byte {
	buf := make([]byte, SizeOfBtl)
	buf[0] = b.Bus
	buf[1] = b.Target
	binary.LittleEndian.PutUint16(buf[2:4], b.Lun)
	return buf
}

func unmarshalBtl(data []byte, b *Btl) error {
	if len(data) < SizeOfBtl {
		return ErrInsufficientData
	}
	b.Bus = data[0]
	b.Target = data[1]
	b.Lun = binary.LittleEndian.Uint16(data[2:4])
	return nil
}

func marshalUnmapDescriptor(d *UnmapDescriptor) []byte {
	buf := make([]byte, SizeOfUnmapDescriptor)
	binary.LittleEndian.PutUint64(buf[0:8], d.BlockAddress)
	binary.LittleEndian.PutUint32(buf[8:12], d.BlockCount)
	return buf
}

func unmarshalUnmapDescriptor(data []byte, d *UnmapDescriptor) error {
	if len(data) < SizeOfUnmapDescriptor {
		return ErrInsufficientData
	}
	d.BlockAddress = binary.LittleEndian.Uint64(data[0:8])
	d.BlockCount = binary.LittleEndian.Uint32(data[8:12])
	return nil
}

const (
	flagWriteProtected = 1 << 0
	flagCacheSupported = 1 << 1
	flagUnmapSupported = 1 << 2
	flagEjectDisabled  = 1 << 3
)

func marshalStorageUnitParams(p *StorageUnitParams) []byte {
	buf := make([]byte, SizeOfStorageUnitParams)
	binary.LittleEndian.PutUint64(buf[0:8], p.GuidHi)
	binary.LittleEndian.PutUint64(buf[8:16], p.GuidLo)
	binary.LittleEndian.PutUint64(buf[16:24], p.BlockCount)
	binary.LittleEndian.PutUint32(buf[24:28], p.BlockLength)
	binary.LittleEndian.PutUint32(buf[28:32], p.MaxTransferLength)
	binary.LittleEndian.PutUint32(buf[32:36], p.MaxUnmapDescriptorCount)

	var flags byte
	if p.WriteProtected {
		flags |= flagWriteProtected
	}
	if p.CacheSupported {
		flags |= flagCacheSupported
	}
	if p.UnmapSupported {
		flags |= flagUnmapSupported
	}
	if p.EjectDisabled {
		flags |= flagEjectDisabled
	}
	buf[36] = flags
	// bytes 37-39 reserved, left zero

	copy(buf[40:56], p.ProductId[:])
	copy(buf[56:60], p.ProductRevisionLevel[:])
	// bytes 60-63 reserved, left zero

	return buf
}

func unmarshalStorageUnitParams(data []byte, p *StorageUnitParams) error {
	if len(data) < SizeOfStorageUnitParams {
		return ErrInsufficientData
	}
	p.GuidHi = binary.LittleEndian.Uint64(data[0:8])
	p.GuidLo = binary.LittleEndian.Uint64(data[8:16])
	p.BlockCount = binary.LittleEndian.Uint64(data[16:24])
	p.BlockLength = binary.LittleEndian.Uint32(data[24:28])
	p.MaxTransferLength = binary.LittleEndian.Uint32(data[28:32])
	p.MaxUnmapDescriptorCount = binary.LittleEndian.Uint32(data[32:36])

	flags := data[36]
	p.WriteProtected = flags&flagWriteProtected != 0
	p.CacheSupported = flags&flagCacheSupported != 0
	p.UnmapSupported = flags&flagUnmapSupported != 0
	p.EjectDisabled = flags&flagEjectDisabled != 0

	copy(p.ProductId[:], data[40:56])
	copy(p.ProductRevisionLevel[:], data[56:60])

	return nil
}

func marshalReadWriteOp(buf []byte, op *ReadWriteOp) {
	binary.LittleEndian.PutUint64(buf[0:8], op.BlockAddress)
	binary.LittleEndian.PutUint32(buf[8:12], op.Length)
	buf[12] = op.ForceUnitAccess
	binary.LittleEndian.PutUint64(buf[16:24], op.Address)
}

func unmarshalReadWriteOp(buf []byte, op *ReadWriteOp) {
	op.BlockAddress = binary.LittleEndian.Uint64(buf[0:8])
	op.Length = binary.LittleEndian.Uint32(buf[8:12])
	op.ForceUnitAccess = buf[12]
	op.Address = binary.LittleEndian.Uint64(buf[16:24])
}

func marshalFlushOp(buf []byte, op *FlushOp) {
	binary.LittleEndian.PutUint64(buf[0:8], op.BlockAddress)
	binary.LittleEndian.PutUint32(buf[8:12], op.Length)
}

func unmarshalFlushOp(buf []byte, op *FlushOp) {
	op.BlockAddress = binary.LittleEndian.Uint64(buf[0:8])
	op.Length = binary.LittleEndian.Uint32(buf[8:12])
}

func marshalUnmapOp(buf []byte, op *UnmapOp) {
	binary.LittleEndian.PutUint32(buf[0:4], op.Count)
	for i := range op.Descriptors {
		off := sizeOfUnmapOpHeader + i*SizeOfUnmapDescriptor
		d := marshalUnmapDescriptor(&op.Descriptors[i])
		copy(buf[off:off+SizeOfUnmapDescriptor], d)
	}
}

func unmarshalUnmapOp(buf []byte, op *UnmapOp) {
	op.Count = binary.LittleEndian.Uint32(buf[0:4])
	for i := range op.Descriptors {
		off := sizeOfUnmapOpHeader + i*SizeOfUnmapDescriptor
		_ = unmarshalUnmapDescriptor(buf[off:off+SizeOfUnmapDescriptor], &op.Descriptors[i])
	}
}

func marshalRequest(r *Request) []byte {
	buf := make([]byte, SizeOfRequest)
	binary.LittleEndian.PutUint64(buf[0:8], r.Hint)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(r.Kind))

	off := 16
	marshalReadWriteOp(buf[off:off+SizeOfReadWriteOp], &r.Read)
	off += SizeOfReadWriteOp
	marshalReadWriteOp(buf[off:off+SizeOfReadWriteOp], &r.Write)
	off += SizeOfReadWriteOp
	marshalFlushOp(buf[off:off+SizeOfFlushOp], &r.Flush)
	off += SizeOfFlushOp
	marshalUnmapOp(buf[off:off+SizeOfUnmapOp], &r.Unmap)

	return buf
}

func unmarshalRequest(data []byte, r *Request) error {
	if len(data) < SizeOfRequest {
		return ErrInsufficientData
	}
	r.Hint = binary.LittleEndian.Uint64(data[0:8])
	r.Kind = Kind(binary.LittleEndian.Uint32(data[8:12]))

	off := 16
	unmarshalReadWriteOp(data[off:off+SizeOfReadWriteOp], &r.Read)
	off += SizeOfReadWriteOp
	unmarshalReadWriteOp(data[off:off+SizeOfReadWriteOp], &r.Write)
	off += SizeOfReadWriteOp
	unmarshalFlushOp(data[off:off+SizeOfFlushOp], &r.Flush)
	off += SizeOfFlushOp
	unmarshalUnmapOp(data[off:off+SizeOfUnmapOp], &r.Unmap)

	return nil
}

func marshalStatus(buf []byte, s *Status) {
	buf[0] = s.ScsiStatus
	copy(buf[8:8+SenseDataLength], s.SenseData[:])
}

func unmarshalStatus(buf []byte, s *Status) {
	s.ScsiStatus = buf[0]
	copy(s.SenseData[:], buf[8:8+SenseDataLength])
}

func marshalResponse(r *Response) []byte {
	buf := make([]byte, SizeOfResponse)
	binary.LittleEndian.PutUint64(buf[0:8], r.Hint)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(r.Kind))
	marshalStatus(buf[16:16+SizeOfStatus], &r.Status)
	return buf
}

func unmarshalResponse(data []byte, r *Response) error {
	if len(data) < SizeOfResponse {
		return ErrInsufficientData
	}
	r.Hint = binary.LittleEndian.Uint64(data[0:8])
	r.Kind = Kind(binary.LittleEndian.Uint32(data[8:12]))
	unmarshalStatus(data[16:16+SizeOfStatus], &r.Status)
	return nil
}
