package sud

import (
	"github.com/ehrlich-b/go-sud/internal/sensefmt"
	"github.com/ehrlich-b/go-sud/internal/wire"
)

// SCSI status bytes a handler may return.
const (
	ScsiStatusGood           = wire.ScsiStatusGood
	ScsiStatusCheckCondition = wire.ScsiStatusCheckCondition
)

// Sense keys a handler may pass to SetSenseData.
const (
	SenseKeyNoSense        = wire.SenseKeyNoSense
	SenseKeyRecoveredError = wire.SenseKeyRecoveredError
	SenseKeyMediumError    = wire.SenseKeyMediumError
	SenseKeyIllegalRequest = wire.SenseKeyIllegalRequest
)

// ASC/ASCQ pairs a handler may pass to SetSenseData.
const (
	AscInvalidCommandOperationCode  = wire.AscInvalidCommandOperationCode
	AscqInvalidCommandOperationCode = wire.AscqInvalidCommandOperationCode

	AscUnrecoveredReadError  = wire.AscUnrecoveredReadError
	AscqUnrecoveredReadError = wire.AscqUnrecoveredReadError

	AscWriteError  = wire.AscWriteError
	AscqWriteError = wire.AscqWriteError
)

// SetSenseData fills sense with a current-response-code fixed-format
// sense buffer carrying the given key/ASC/ASCQ, per spec.md §6.
func SetSenseData(sense *SenseData, key byte, asc byte, ascq byte) {
	sensefmt.Set(sense, key, asc, ascq)
}

// SetSenseInformation encodes lba as the big-endian Information field
// of sense and sets its valid bit, for MEDIUM_ERROR/WRITE_ERROR
// reporting of the offending block address (spec.md §7, scenario S3).
func SetSenseInformation(sense *SenseData, lba uint32) {
	sensefmt.SetInformation(sense, lba)
}

// IllegalRequestSense returns the sense data the dispatcher attaches
// when a request's kind has no installed handler (spec.md §8 property 3).
func IllegalRequestSense() SenseData {
	return sensefmt.IllegalRequest()
}
