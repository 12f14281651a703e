package events

import "time"

// Counter names carried by CounterEvent.
const (
	CounterBattery   = "battery"
	CounterLoad      = "load_progress"
	CounterTrivia    = "trivia_index"
	CounterCountdown = "seconds_left"
)

// CounterEvent is published whenever a timer changes one of the session
// counters.
type CounterEvent struct {
	Counter string    `json:"counter"`
	Value   int       `json:"value"`
	Time    time.Time `json:"time"`
}

// RejectedEvent is published when an action or a stale timer callback is
// refused by the state machine.
type RejectedEvent struct {
	Action string    `json:"action"`
	Stage  string    `json:"stage"`
	Reason string    `json:"reason"`
	Time   time.Time `json:"time"`
}
