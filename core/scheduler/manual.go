package scheduler

import (
	"sort"
	"time"
)

// Manual is a deterministic scheduler driven by a virtual clock. Nothing
// happens until Advance or Step is called; callbacks then run on the caller's
// goroutine in due-time order, ties broken by registration order.
type Manual struct {
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	next      time.Time
	period    time.Duration
	fn        func()
	seq       uint64
	cancelled bool
}

func (t *manualTimer) Cancel()      { t.cancelled = true }
func (t *manualTimer) Active() bool { return !t.cancelled }

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current virtual time.
func (m *Manual) Now() time.Time { return m.now }

// Every implements Scheduler. A non-positive period yields an inactive handle.
func (m *Manual) Every(period time.Duration, fn func()) Handle {
	if period <= 0 || fn == nil {
		return Inactive
	}
	return m.add(period, period, fn)
}

// After implements Scheduler.
func (m *Manual) After(delay time.Duration, fn func()) Handle {
	if fn == nil {
		return Inactive
	}
	if delay < 0 {
		delay = 0
	}
	return m.add(delay, 0, fn)
}

func (m *Manual) add(first, period time.Duration, fn func()) *manualTimer {
	m.seq++
	t := &manualTimer{next: m.now.Add(first), period: period, fn: fn, seq: m.seq}
	m.timers = append(m.timers, t)
	return t
}

// Pending returns the number of active timers.
func (m *Manual) Pending() int {
	m.compact()
	return len(m.timers)
}

// Advance moves the clock forward by d, firing every callback that becomes
// due. It returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now.Add(d)
	fired := 0
	for {
		t := m.earliest()
		if t == nil || t.next.After(target) {
			break
		}
		m.fire(t)
		fired++
	}
	m.now = target
	return fired
}

// Step jumps the clock to the next due timer and fires it. It reports false
// when no active timer remains.
func (m *Manual) Step() bool {
	t := m.earliest()
	if t == nil {
		return false
	}
	m.fire(t)
	return true
}

func (m *Manual) fire(t *manualTimer) {
	if t.next.After(m.now) {
		m.now = t.next
	}
	if t.period > 0 {
		t.next = t.next.Add(t.period)
	} else {
		t.cancelled = true
	}
	t.fn()
}

func (m *Manual) earliest() *manualTimer {
	m.compact()
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		a, b := m.timers[i], m.timers[j]
		if a.next.Equal(b.next) {
			return a.seq < b.seq
		}
		return a.next.Before(b.next)
	})
	return m.timers[0]
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(m.timers); i++ {
		m.timers[i] = nil
	}
	m.timers = live
}
