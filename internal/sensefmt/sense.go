// Package sensefmt builds fixed-format SCSI sense data, spec.md §6:
// response code (0x70/0x71), sense key in the low nibble of byte 2, ASC
// at byte 12, ASCQ at byte 13, an optional big-endian Information field
// at bytes 3-6 with its valid bit, and an optional command-specific
// field at bytes 8-11.
package sensefmt

import "github.com/ehrlich-b/go-sud/internal/wire"

const (
	validBit = 0x80
)

// Set fills sense with a current-response-code fixed-format sense
// buffer carrying the given key/ASC/ASCQ. Any prior contents are
// cleared first.
func Set(sense *[wire.SenseDataLength]byte, key byte, asc byte, ascq byte) {
	*sense = [wire.SenseDataLength]byte{}
	sense[0] = wire.SenseResponseCodeCurrent
	sense[2] = key & 0x0F
	sense[7] = wire.SenseDataLength - 8 // additional sense length
	sense[12] = asc
	sense[13] = ascq
}

// SetInformation encodes lba as the 32-bit big-endian Information field
// (bytes 3-6) and sets its valid bit (bit 7 of byte 0).
func SetInformation(sense *[wire.SenseDataLength]byte, lba uint32) {
	sense[0] |= validBit
	sense[3] = byte(lba >> 24)
	sense[4] = byte(lba >> 16)
	sense[5] = byte(lba >> 8)
	sense[6] = byte(lba)
}

// IllegalRequest returns the sense data produced when a request's kind
// has no installed handler, spec.md §4.3/§8 property 3.
func IllegalRequest() [wire.SenseDataLength]byte {
	var sense [wire.SenseDataLength]byte
	Set(&sense, wire.SenseKeyIllegalRequest, wire.AscInvalidCommandOperationCode, wire.AscqInvalidCommandOperationCode)
	return sense
}
