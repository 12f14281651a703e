package metrics

import "time"

// TransitionEvent records one stage change of the state machine.
type TransitionEvent struct {
	SessionID string
	From      string
	To        string
	PodID     int
	Reason    string
	Time      time.Time
}

// MetricsSink records session activity for observability purposes.
type MetricsSink interface {
	RecordTransition(ev TransitionEvent) error
}

// CounterSample is a snapshot of the timer-driven counters.
type CounterSample struct {
	Stage        string
	BatteryLevel int
	LoadProgress int
	SecondsLeft  int
	TriviaIndex  int
	Time         time.Time
}

// CounterRecorder records counter samples.
type CounterRecorder interface {
	RecordCounters(s CounterSample) error
}

// RejectionEvent captures an action refused by the state machine. Reason is
// a short machine-friendly label such as "invalid_selection".
type RejectionEvent struct {
	Action string
	Stage  string
	Reason string
	Time   time.Time
}

// RejectionRecorder records refused actions and stale timer callbacks.
type RejectionRecorder interface {
	RecordRejection(ev RejectionEvent) error
}

// ArrivalEvent records a countdown that reached zero.
type ArrivalEvent struct {
	SessionID string
	PodID     int
	Duration  time.Duration // time spent between dispatch confirmation and arrival
	Time      time.Time
}

// ArrivalRecorder records completed dispatches.
type ArrivalRecorder interface {
	RecordArrival(ev ArrivalEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTransition(TransitionEvent) error { return nil }
func (NopSink) RecordCounters(CounterSample) error     { return nil }
func (NopSink) RecordRejection(RejectionEvent) error   { return nil }
func (NopSink) RecordArrival(ArrivalEvent) error       { return nil }
