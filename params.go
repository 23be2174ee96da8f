package sud

import "github.com/ehrlich-b/go-sud/internal/wire"

const (
	maxProductIdLen            = 16
	maxProductRevisionLevelLen = 4
	maxTransferLengthCeiling   = 16 * 1024 * 1024
)

// StorageUnitParams is the public, validated form of the wire-level
// provisioning parameters of spec.md §3. Fields are fixed for the
// life of the LUN once Create succeeds.
type StorageUnitParams struct {
	GuidHi uint64
	GuidLo uint64

	BlockCount uint64
	BlockLength uint32

	MaxTransferLength       uint32
	MaxUnmapDescriptorCount uint32

	ProductId            string
	ProductRevisionLevel string

	WriteProtected bool
	CacheSupported bool
	UnmapSupported bool
	EjectDisabled  bool
}

// DefaultParams returns parameters for a 1 GiB, 512-byte-block,
// read-write, cache-enabled LUN with a 1 MiB max transfer length.
func DefaultParams() StorageUnitParams {
	return StorageUnitParams{
		BlockCount:              2 * 1024 * 1024, // 1 GiB at 512-byte blocks
		BlockLength:             512,
		MaxTransferLength:       1024 * 1024,
		MaxUnmapDescriptorCount: wire.MaxUnmapDescriptors,
		ProductId:               "go-sud",
		ProductRevisionLevel:    "1.0",
		CacheSupported:          true,
		UnmapSupported:          true,
	}
}

// Validate enforces spec.md §3's invariants and §8 property 9.
func (p StorageUnitParams) Validate() error {
	if p.BlockLength == 0 {
		return NewError("create", ErrCodeInvalidParameters, "BlockLength must be nonzero")
	}
	if p.BlockLength%2 != 0 {
		return NewError("create", ErrCodeInvalidParameters, "BlockLength must be a multiple of 2")
	}
	if p.MaxTransferLength == 0 || p.MaxTransferLength%p.BlockLength != 0 {
		return NewError("create", ErrCodeInvalidParameters, "MaxTransferLength must be a nonzero multiple of BlockLength")
	}
	if p.MaxTransferLength > maxTransferLengthCeiling {
		return NewError("create", ErrCodeOversizeTransfer, "MaxTransferLength exceeds 16 MiB")
	}
	hi, lo := p.BlockCount, uint64(p.BlockLength)
	if lo != 0 && hi > (^uint64(0))/lo {
		return NewError("create", ErrCodeInvalidParameters, "BlockCount*BlockLength overflows 64 bits")
	}
	if len(p.ProductId) > maxProductIdLen {
		return NewError("create", ErrCodeOversizeTransfer, "ProductId exceeds 16 bytes")
	}
	if len(p.ProductRevisionLevel) > maxProductRevisionLevelLen {
		return NewError("create", ErrCodeOversizeTransfer, "ProductRevisionLevel exceeds 4 bytes")
	}
	if len(p.ProductId) > 0 && p.ProductId[0] == 0 {
		return NewError("create", ErrCodeInvalidASCII, "ProductId has a leading NUL")
	}
	if len(p.ProductRevisionLevel) > 0 && p.ProductRevisionLevel[0] == 0 {
		return NewError("create", ErrCodeInvalidASCII, "ProductRevisionLevel has a leading NUL")
	}
	return nil
}

func padASCII(s string, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = ' '
	}
	copy(buf, s)
	return buf
}

func (p StorageUnitParams) toWire() wire.StorageUnitParams {
	wp := wire.StorageUnitParams{
		GuidHi:                  p.GuidHi,
		GuidLo:                  p.GuidLo,
		BlockCount:              p.BlockCount,
		BlockLength:             p.BlockLength,
		MaxTransferLength:       p.MaxTransferLength,
		MaxUnmapDescriptorCount: p.MaxUnmapDescriptorCount,
		WriteProtected:          p.WriteProtected,
		CacheSupported:          p.CacheSupported,
		UnmapSupported:          p.UnmapSupported,
		EjectDisabled:           p.EjectDisabled,
	}
	copy(wp.ProductId[:], padASCII(p.ProductId, maxProductIdLen))
	copy(wp.ProductRevisionLevel[:], padASCII(p.ProductRevisionLevel, maxProductRevisionLevelLen))
	return wp
}
