// Package constants holds default parameters and fixed limits for the
// storage-unit runtime.
package constants

import "time"

// Default configuration constants for StorageUnitParams.
const (
	// DefaultBlockLength is the default logical block size in bytes.
	DefaultBlockLength = 512

	// DefaultMaxTransferLength is the default per-request payload cap in
	// bytes (1MB).
	DefaultMaxTransferLength = 1 << 20

	// MaxAllowedTransferLength is the hard ceiling on MaxTransferLength
	// (16MiB), per the StorageUnitParams invariant.
	MaxAllowedTransferLength = 16 << 20

	// DefaultMaxUnmapDescriptorCount bounds the number of descriptors a
	// single Unmap request may carry.
	DefaultMaxUnmapDescriptorCount = 256

	// ProductIDLength and ProductRevisionLevelLength are the fixed,
	// space-padded ASCII field widths on the wire.
	ProductIDLength            = 16
	ProductRevisionLevelLength = 4
)

// Timing constants for dispatcher and transport behavior.
const (
	// DefaultTransactTimeout is a default in-flight request timeout for
	// callers of the transport's SetTransactTimeout. Create does not
	// apply it; no timeout is set unless a caller sets one.
	DefaultTransactTimeout = 30 * time.Second

	// CharDeviceRetryDelay is the backoff between retries when opening
	// the transport's control device races device-node creation.
	CharDeviceRetryDelay = 50 * time.Millisecond

	// CharDeviceMaxRetries bounds how long IoctlTransport.Open waits for the
	// control device node to appear.
	CharDeviceMaxRetries = 20
)

// StatusPending is the sentinel SCSI status byte a handler stores to
// signal that it has taken over completion and will answer later via
// deferred completion.
const StatusPending = 0xFF
