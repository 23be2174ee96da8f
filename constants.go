package sud

import "github.com/ehrlich-b/go-sud/internal/constants"

// Default configuration constants, re-exported from internal/constants
// for callers that don't want to import the internal package directly.
const (
	DefaultBlockLength             = constants.DefaultBlockLength
	DefaultMaxTransferLength       = constants.DefaultMaxTransferLength
	MaxAllowedTransferLength       = constants.MaxAllowedTransferLength
	DefaultMaxUnmapDescriptorCount = constants.DefaultMaxUnmapDescriptorCount
	ProductIDLength                = constants.ProductIDLength
	ProductRevisionLevelLength     = constants.ProductRevisionLevelLength

	DefaultTransactTimeout = constants.DefaultTransactTimeout
	CharDeviceRetryDelay   = constants.CharDeviceRetryDelay
	CharDeviceMaxRetries   = constants.CharDeviceMaxRetries
)
