// Package journal persists the session events emitted by the dispatch
// machine so past dispatches can be inspected and exported.
package journal

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"time"

	"github.com/kilianp07/xcharge/core/events"
)

// Record is one journaled event.
type Record struct {
	Time      time.Time       `json:"time"`
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	PodID     int             `json:"pod_id,omitempty"`
	Stage     string          `json:"stage,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// Query defines filters for retrieving records. Zero fields match
// everything.
type Query struct {
	Start     time.Time
	End       time.Time
	SessionID string
	PodID     int
	Types     []string
	// Limit keeps the most recent records only.
	Limit int
}

// Match reports whether r passes every filter of q except Limit.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Time.After(q.End) {
		return false
	}
	if q.SessionID != "" && r.SessionID != q.SessionID {
		return false
	}
	if q.PodID != 0 && r.PodID != q.PodID {
		return false
	}
	if len(q.Types) > 0 && !slices.Contains(q.Types, r.Type) {
		return false
	}
	return true
}

// apply sorts matching records by time and enforces Limit.
func (q Query) apply(in []Record) []Record {
	out := make([]Record, 0, len(in))
	for _, r := range in {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// FromEvent converts a bus event into a Record.
func FromEvent(ev any) (Record, error) {
	env, err := events.Wrap(ev)
	if err != nil {
		return Record{}, err
	}
	r := Record{Time: env.Time, Type: env.Type, Data: env.Data}
	switch e := ev.(type) {
	case events.StageEvent:
		r.SessionID, r.PodID, r.Stage = e.SessionID, e.PodID, e.To
	case events.ArrivalEvent:
		r.SessionID, r.PodID, r.Stage = e.SessionID, e.PodID, "tracking"
	case events.OverlayEvent:
		r.PodID, r.Stage = e.PodID, "details"
	case events.RejectedEvent:
		r.Stage = e.Stage
	}
	return r, nil
}

// Event decodes the typed event stored in r.
func (r Record) Event() (any, error) {
	return events.Envelope{Type: r.Type, Time: r.Time, Data: r.Data}.Decode()
}
