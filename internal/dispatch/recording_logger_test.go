package dispatch

import "sync"

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.record(msg) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.record(msg) }
func (r *recordingLogger) Error(msg string, args ...any) { r.record(msg) }

func (r *recordingLogger) record(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, msg)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}
