package logging

import (
	"fmt"
	"sync"
)

// Recorder keeps formatted messages in memory. Used by tests that assert on
// what was logged.
type Recorder struct {
	mu       sync.Mutex
	Infos    []string
	Errors   []string
	Verboses []string
}

func (r *Recorder) Verbose(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Verboses = append(r.Verboses, fmt.Sprintf(format, args...))
}

func (r *Recorder) Info(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Infos = append(r.Infos, fmt.Sprintf(format, args...))
}

func (r *Recorder) Error(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// ErrorCount returns how many errors were recorded.
func (r *Recorder) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Errors)
}

var _ Logger = (*Recorder)(nil)
