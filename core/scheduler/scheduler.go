package scheduler

import "time"

// Handle controls a scheduled callback. Cancel is idempotent.
type Handle interface {
	Cancel()
	Active() bool
}

// Scheduler registers callbacks to be run later. Callbacks never run
// concurrently with each other for a given scheduler.
type Scheduler interface {
	// Every runs fn every period until the handle is cancelled.
	Every(period time.Duration, fn func()) Handle
	// After runs fn once after delay unless the handle is cancelled first.
	After(delay time.Duration, fn func()) Handle
}

// Group tracks the handles created for one owner so they can be cancelled
// together. The zero value is ready to use.
type Group struct {
	handles []Handle
}

// Add records h and returns it.
func (g *Group) Add(h Handle) Handle {
	g.handles = append(g.handles, h)
	return h
}

// CancelAll cancels every recorded handle and forgets them.
func (g *Group) CancelAll() {
	for _, h := range g.handles {
		h.Cancel()
	}
	g.handles = nil
}

// Len returns the number of still active handles.
func (g *Group) Len() int {
	n := 0
	for _, h := range g.handles {
		if h.Active() {
			n++
		}
	}
	return n
}

type inactive struct{}

func (inactive) Cancel()      {}
func (inactive) Active() bool { return false }

// Inactive is a handle that was never scheduled.
var Inactive Handle = inactive{}
