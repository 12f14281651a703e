// Package export writes journal records and per-dispatch summaries as JSON
// or CSV, and counter timelines as an HTML chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/kilianp07/xcharge/core/events"
	"github.com/kilianp07/xcharge/core/journal"
)

// Formats accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatHTML = "html"
)

// Write encodes records in the given format.
func Write(w io.Writer, format string, recs []journal.Record) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, recs)
	case FormatCSV:
		return WriteCSV(w, recs)
	case FormatHTML:
		return WriteChart(w, recs)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteJSON writes the records to w as a JSON array.
func WriteJSON(w io.Writer, recs []journal.Record) error {
	if recs == nil {
		recs = []journal.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// WriteCSV writes one row per record. The event payload is kept as JSON in
// the last column.
func WriteCSV(w io.Writer, recs []journal.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "type", "session_id", "pod_id", "stage", "data"}); err != nil {
		return err
	}
	for _, r := range recs {
		pod := ""
		if r.PodID != 0 {
			pod = strconv.Itoa(r.PodID)
		}
		row := []string{
			r.Time.UTC().Format(time.RFC3339Nano),
			r.Type,
			r.SessionID,
			pod,
			r.Stage,
			string(r.Data),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary describes one dispatch from payment to arrival or abort.
type Summary struct {
	SessionID    string        `json:"session_id"`
	PodID        int           `json:"pod_id"`
	DispatchedAt time.Time     `json:"dispatched_at"`
	ArrivedAt    *time.Time    `json:"arrived_at,omitempty"`
	Duration     time.Duration `json:"duration_ns,omitempty"`
	Outcome      string        `json:"outcome"`
}

// Outcomes reported in Summary.
const (
	OutcomeArrived    = "arrived"
	OutcomeAborted    = "aborted"
	OutcomeInProgress = "in_progress"
)

// Summarize groups stage and arrival records by session. Records must be in
// time order, as returned by journal stores.
func Summarize(recs []journal.Record) []Summary {
	byID := map[string]*Summary{}
	var order []string
	for _, r := range recs {
		if r.SessionID == "" {
			continue
		}
		s, ok := byID[r.SessionID]
		if !ok {
			s = &Summary{SessionID: r.SessionID, PodID: r.PodID, Outcome: OutcomeInProgress}
			byID[r.SessionID] = s
			order = append(order, r.SessionID)
		}
		ev, err := r.Event()
		if err != nil {
			continue
		}
		switch e := ev.(type) {
		case events.StageEvent:
			if e.To == "dispatch" {
				s.DispatchedAt = e.Time
			}
			if e.To == "map" && s.Outcome == OutcomeInProgress {
				s.Outcome = OutcomeAborted
			}
		case events.ArrivalEvent:
			at := e.Time
			s.ArrivedAt = &at
			s.Outcome = OutcomeArrived
			if !s.DispatchedAt.IsZero() {
				s.Duration = at.Sub(s.DispatchedAt)
			}
		}
	}
	out := make([]Summary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DispatchedAt.Before(out[j].DispatchedAt) })
	return out
}

// WriteSummaryCSV writes one row per dispatch.
func WriteSummaryCSV(w io.Writer, sums []Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"session_id", "pod_id", "dispatched_at", "arrived_at", "duration_s", "outcome"}); err != nil {
		return err
	}
	for _, s := range sums {
		arrived, dur := "", ""
		if s.ArrivedAt != nil {
			arrived = s.ArrivedAt.UTC().Format(time.RFC3339)
			dur = strconv.FormatFloat(s.Duration.Seconds(), 'f', -1, 64)
		}
		row := []string{s.SessionID, strconv.Itoa(s.PodID), s.DispatchedAt.UTC().Format(time.RFC3339), arrived, dur, s.Outcome}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary encodes summaries in the given format.
func WriteSummary(w io.Writer, format string, sums []Summary) error {
	switch format {
	case FormatJSON:
		if sums == nil {
			sums = []Summary{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sums)
	case FormatCSV:
		return WriteSummaryCSV(w, sums)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
