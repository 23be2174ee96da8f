package dispatch

import "sync/atomic"

type errHolder struct{ err error }

// ErrorLatch is the single-shot "latched DispatcherError" cell of
// spec.md §3/§5: the first Set wins, using atomic compare-and-swap;
// subsequent Set calls are no-ops.
type ErrorLatch struct {
	p atomic.Pointer[errHolder]
}

// Set latches err if no error has been latched yet. Returns true if
// this call was the one that latched it.
func (l *ErrorLatch) Set(err error) bool {
	if err == nil {
		return false
	}
	return l.p.CompareAndSwap(nil, &errHolder{err: err})
}

// Get returns the latched error, or nil if none has been latched.
func (l *ErrorLatch) Get() error {
	h := l.p.Load()
	if h == nil {
		return nil
	}
	return h.err
}
