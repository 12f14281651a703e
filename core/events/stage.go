package events

import "time"

// StageEvent is published after every stage transition. Stages are carried
// as their string names so subscribers do not depend on the dispatch package.
type StageEvent struct {
	SessionID string    `json:"session_id,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	PodID     int       `json:"pod_id,omitempty"`
	Reason    string    `json:"reason"`
	Time      time.Time `json:"time"`
}

// ArrivalEvent is published once when the countdown of a tracked dispatch
// reaches zero.
type ArrivalEvent struct {
	SessionID string    `json:"session_id"`
	PodID     int       `json:"pod_id,omitempty"`
	Time      time.Time `json:"time"`
}

// OverlayEvent reports the payment overlay visibility.
type OverlayEvent struct {
	PodID int       `json:"pod_id,omitempty"`
	Open  bool      `json:"open"`
	Time  time.Time `json:"time"`
}
