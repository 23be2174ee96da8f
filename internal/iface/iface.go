// Package iface holds the handler-table and instrumentation interfaces
// shared between the root sud package and internal/dispatch, kept
// separate to avoid a circular import between them — the same reason
// the teacher carries internal/interfaces/backend.go.
package iface

import "context"

// UnmapDescriptor is one (block address, block count) pair of an Unmap
// request, spec.md §6.
type UnmapDescriptor struct {
	BlockAddress uint64
	BlockCount   uint32
}

// Sense is the fixed-format SCSI sense buffer a handler fills in to
// report a failure, spec.md §6.
type Sense = [18]byte

// Interface is the user-installed handler table, spec.md §3/§4.3. Any
// field may be nil; a nil handler answers its kind with CHECK_CONDITION
// / ILLEGAL_REQUEST.
type Interface struct {
	Read  func(ctx context.Context, blockAddress uint64, buf []byte, blockCount uint32, sense *Sense) uint8
	Write func(ctx context.Context, blockAddress uint64, buf []byte, blockCount uint32, sense *Sense) uint8
	Flush func(ctx context.Context, blockAddress uint64, blockCount uint32, sense *Sense) uint8
	Unmap func(ctx context.Context, descriptors []UnmapDescriptor, sense *Sense) uint8
}

// Logger is the minimal logging capability the dispatcher needs from
// the ambient logging package, kept here to avoid internal/dispatch
// depending on internal/logging's full surface.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Observer receives per-operation instrumentation, mirroring the
// teacher's Observer in metrics.go but over this domain's four
// operation kinds.
type Observer interface {
	ObserveRead(bytes uint64, latencyNs uint64, success bool)
	ObserveWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveFlush(latencyNs uint64, success bool)
	ObserveUnmap(bytes uint64, latencyNs uint64, success bool)
	ObserveWorkerCount(n int)
}

// NoOpObserver discards everything. Used when no Observer is configured.
type NoOpObserver struct{}

func (NoOpObserver) ObserveRead(uint64, uint64, bool)    {}
func (NoOpObserver) ObserveWrite(uint64, uint64, bool)   {}
func (NoOpObserver) ObserveFlush(uint64, bool)           {}
func (NoOpObserver) ObserveUnmap(uint64, uint64, bool)   {}
func (NoOpObserver) ObserveWorkerCount(int)              {}
