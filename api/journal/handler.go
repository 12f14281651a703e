package journal

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	corejournal "github.com/kilianp07/xcharge/core/journal"
	"github.com/kilianp07/xcharge/pkg/export"
)

// NewHandler returns an HTTP handler exposing journal records via GET /api/journal.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
//
// Query parameters: start, end (RFC3339), session_id, pod_id, type (repeatable),
// limit, format (json|csv|html) and summary=true for one row per dispatch.
// The html format renders the counter timeline and has no summary form.
func NewHandler(store corejournal.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format := strings.ToLower(r.URL.Query().Get("format"))
		if format == "" {
			format = export.FormatJSON
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		switch format {
		case export.FormatCSV:
			w.Header().Set("Content-Type", "text/csv")
		case export.FormatJSON:
			w.Header().Set("Content-Type", "application/json")
		case export.FormatHTML:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		default:
			http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("summary") == "true" {
			err = export.WriteSummary(w, format, export.Summarize(records))
		} else {
			err = export.Write(w, format, records)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func parseQuery(r *http.Request) (corejournal.Query, error) {
	v := r.URL.Query()
	q := corejournal.Query{SessionID: v.Get("session_id"), Types: v["type"]}
	if s := v.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, fmt.Errorf("start: %w", err)
		}
		q.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, fmt.Errorf("end: %w", err)
		}
		q.End = t
	}
	for name, dst := range map[string]*int{"pod_id": &q.PodID, "limit": &q.Limit} {
		if s := v.Get(name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return q, fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}
	return q, nil
}
