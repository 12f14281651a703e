package monitoring

import (
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor restores
// NopMonitor.
func Init(m Monitor) {
	if m == nil {
		m = NopMonitor{}
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	get().CaptureException(err, tags)
}

// Recover captures panics in goroutines. It must be deferred directly.
func Recover() {
	if r := recover(); r != nil {
		m := get()
		if _, nop := m.(NopMonitor); nop {
			panic(r)
		}
		// hand the panic to the monitor, which reports and re-panics
		func() {
			defer m.Recover()
			panic(r)
		}()
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}

// Captured is an error recorded by Recorder.
type Captured struct {
	Err  error
	Tags map[string]string
}

// Recorder keeps captured errors in memory. It is meant for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Captured
}

func (r *Recorder) CaptureException(err error, tags map[string]string) {
	r.mu.Lock()
	r.events = append(r.events, Captured{Err: err, Tags: tags})
	r.mu.Unlock()
}
func (r *Recorder) Recover()            {}
func (r *Recorder) Flush(time.Duration) {}

// Events returns the captured errors.
func (r *Recorder) Events() []Captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Captured(nil), r.events...)
}
