package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopStopped is returned when work is submitted to a loop that has exited.
var ErrLoopStopped = errors.New("scheduler loop stopped")

// Loop is a real-time scheduler with a single consumer goroutine. Timer
// callbacks and posted closures are queued and executed one at a time by
// Run, which gives callers the same guarantees as a browser event loop.
type Loop struct {
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop with the given queue capacity.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{queue: make(chan func(), buffer), done: make(chan struct{})}
}

// Run executes queued work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Post queues fn for execution on the loop. It blocks while the queue is
// full and reports false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to complete.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

type loopTimer struct {
	active atomic.Bool
	stop   chan struct{}
	once   sync.Once
}

func (t *loopTimer) Cancel() {
	t.active.Store(false)
	t.once.Do(func() { close(t.stop) })
}

func (t *loopTimer) Active() bool { return t.active.Load() }

func (l *Loop) newTimer() *loopTimer {
	t := &loopTimer{stop: make(chan struct{})}
	t.active.Store(true)
	return t
}

// Every implements Scheduler. Ticks that arrive while fn is still queued are
// not coalesced; a cancelled handle discards any tick already in the queue.
func (l *Loop) Every(period time.Duration, fn func()) Handle {
	if period <= 0 || fn == nil {
		return Inactive
	}
	t := l.newTimer()
	go func() {
		tk := time.NewTicker(period)
		defer tk.Stop()
		for {
			select {
			case <-tk.C:
				l.Post(func() {
					if t.Active() {
						fn()
					}
				})
			case <-t.stop:
				return
			case <-l.done:
				return
			}
		}
	}()
	return t
}

// After implements Scheduler.
func (l *Loop) After(delay time.Duration, fn func()) Handle {
	if fn == nil {
		return Inactive
	}
	t := l.newTimer()
	go func() {
		tm := time.NewTimer(delay)
		defer tm.Stop()
		select {
		case <-tm.C:
			l.Post(func() {
				if t.Active() {
					t.active.Store(false)
					fn()
				}
			})
		case <-t.stop:
		case <-l.done:
		}
	}()
	return t
}
