package sud

import (
	"context"
	"sync"
)

// MemoryInterface is an in-memory Interface implementation for unit
// testing applications built on this package, adapted from the
// teacher's MockBackend pattern onto Read/Write/Flush/Unmap semantics.
type MemoryInterface struct {
	mu          sync.RWMutex
	blockLength uint32
	data        []byte

	readCalls  int
	writeCalls int
	flushCalls int
	unmapCalls int
}

// NewMemoryInterface allocates a MemoryInterface backing blockCount
// blocks of blockLength bytes each, zero-filled.
func NewMemoryInterface(blockCount uint64, blockLength uint32) *MemoryInterface {
	return &MemoryInterface{
		blockLength: blockLength,
		data:        make([]byte, blockCount*uint64(blockLength)),
	}
}

// Interface returns the Interface bound to this backing store.
func (m *MemoryInterface) Interface() *Interface {
	return &Interface{
		Read:  m.read,
		Write: m.write,
		Flush: m.flush,
		Unmap: m.unmap,
	}
}

func (m *MemoryInterface) read(_ context.Context, blockAddress uint64, buf []byte, blockCount uint32, sense *SenseData) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++

	off := blockAddress * uint64(m.blockLength)
	length := uint64(blockCount) * uint64(m.blockLength)
	if off+length > uint64(len(m.data)) {
		SetSenseData(sense, SenseKeyIllegalRequest, AscInvalidCommandOperationCode, AscqInvalidCommandOperationCode)
		return ScsiStatusCheckCondition
	}
	copy(buf, m.data[off:off+length])
	return ScsiStatusGood
}

func (m *MemoryInterface) write(_ context.Context, blockAddress uint64, buf []byte, blockCount uint32, sense *SenseData) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls++

	off := blockAddress * uint64(m.blockLength)
	length := uint64(blockCount) * uint64(m.blockLength)
	if off+length > uint64(len(m.data)) {
		SetSenseData(sense, SenseKeyIllegalRequest, AscInvalidCommandOperationCode, AscqInvalidCommandOperationCode)
		return ScsiStatusCheckCondition
	}
	copy(m.data[off:off+length], buf)
	return ScsiStatusGood
}

func (m *MemoryInterface) flush(_ context.Context, _ uint64, _ uint32, _ *SenseData) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushCalls++
	return ScsiStatusGood
}

func (m *MemoryInterface) unmap(_ context.Context, descriptors []UnmapDescriptor, _ *SenseData) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unmapCalls++

	for _, d := range descriptors {
		off := d.BlockAddress * uint64(m.blockLength)
		length := uint64(d.BlockCount) * uint64(m.blockLength)
		if off+length > uint64(len(m.data)) {
			continue
		}
		clear(m.data[off : off+length])
	}
	return ScsiStatusGood
}

// CallCounts returns the number of times each handler has been
// invoked, for use in test assertions.
func (m *MemoryInterface) CallCounts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int{
		"read":  m.readCalls,
		"write": m.writeCalls,
		"flush": m.flushCalls,
		"unmap": m.unmapCalls,
	}
}

// ReadBytes returns a copy of length bytes starting at byte offset
// off, for asserting on write results in tests.
func (m *MemoryInterface) ReadBytes(off, length uint64) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, length)
	copy(out, m.data[off:off+length])
	return out
}
