package dispatch

import "sync"

// Buffer size thresholds, extended from the teacher's 128KB-1MB ladder
// up to MaxAllowedTransferLength (16MiB) since Read/Write payloads here
// are not capped by a per-tag mmap region the way ublk's are.
const (
	size128k = 128 * 1024
	size256k = 256 * 1024
	size512k = 512 * 1024
	size1m   = 1024 * 1024
	size2m   = 2 * 1024 * 1024
	size4m   = 4 * 1024 * 1024
	size8m   = 8 * 1024 * 1024
	size16m  = 16 * 1024 * 1024
)

// bufferPool is a size-bucketed sync.Pool ladder for Read/Write payload
// buffers, avoiding a hot-path allocation per request for all but the
// largest transfers.
var bufferPool = struct {
	p128k, p256k, p512k, p1m, p2m, p4m, p8m, p16m sync.Pool
}{
	p128k: sync.Pool{New: func() any { b := make([]byte, size128k); return &b }},
	p256k: sync.Pool{New: func() any { b := make([]byte, size256k); return &b }},
	p512k: sync.Pool{New: func() any { b := make([]byte, size512k); return &b }},
	p1m:   sync.Pool{New: func() any { b := make([]byte, size1m); return &b }},
	p2m:   sync.Pool{New: func() any { b := make([]byte, size2m); return &b }},
	p4m:   sync.Pool{New: func() any { b := make([]byte, size4m); return &b }},
	p8m:   sync.Pool{New: func() any { b := make([]byte, size8m); return &b }},
	p16m:  sync.Pool{New: func() any { b := make([]byte, size16m); return &b }},
}

// GetBuffer returns a pooled buffer of at least the requested size.
// Callers above size16m get a plain allocation that is never pooled.
func GetBuffer(size uint32) []byte {
	switch {
	case size <= size128k:
		return (*bufferPool.p128k.Get().(*[]byte))[:size]
	case size <= size256k:
		return (*bufferPool.p256k.Get().(*[]byte))[:size]
	case size <= size512k:
		return (*bufferPool.p512k.Get().(*[]byte))[:size]
	case size <= size1m:
		return (*bufferPool.p1m.Get().(*[]byte))[:size]
	case size <= size2m:
		return (*bufferPool.p2m.Get().(*[]byte))[:size]
	case size <= size4m:
		return (*bufferPool.p4m.Get().(*[]byte))[:size]
	case size <= size8m:
		return (*bufferPool.p8m.Get().(*[]byte))[:size]
	case size <= size16m:
		return (*bufferPool.p16m.Get().(*[]byte))[:size]
	default:
		return make([]byte, size)
	}
}

// PutBuffer returns buf to the pool matching its capacity. Buffers with
// a non-standard capacity (above size16m, or not sourced from GetBuffer)
// are simply dropped.
func PutBuffer(buf []byte) {
	c := cap(buf)
	buf = buf[:c]
	switch c {
	case size128k:
		bufferPool.p128k.Put(&buf)
	case size256k:
		bufferPool.p256k.Put(&buf)
	case size512k:
		bufferPool.p512k.Put(&buf)
	case size1m:
		bufferPool.p1m.Put(&buf)
	case size2m:
		bufferPool.p2m.Put(&buf)
	case size4m:
		bufferPool.p4m.Put(&buf)
	case size8m:
		bufferPool.p8m.Put(&buf)
	case size16m:
		bufferPool.p16m.Put(&buf)
	}
}
