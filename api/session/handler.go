// Package session exposes the dispatch view over HTTP for headless use.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kilianp07/xcharge/core/dispatch"
	"github.com/kilianp07/xcharge/core/model"
	"github.com/kilianp07/xcharge/infra/mapview"
)

// Controller serialises access to the machine. Apply returns the snapshot
// taken right after the action, together with the rejection error if any.
type Controller interface {
	Snapshot(ctx context.Context) (dispatch.Snapshot, error)
	Apply(ctx context.Context, a dispatch.Action) (dispatch.Snapshot, error)
	Pods() []model.Pod
}

// Streamer delivers snapshots as they change. *eventbus.TypedBus satisfies it.
type Streamer interface {
	Subscribe() <-chan dispatch.Snapshot
	Unsubscribe(<-chan dispatch.Snapshot)
}

// Options configures the routes mounted by Register.
type Options struct {
	// Token, when non-empty, is required as a bearer token on POST requests.
	Token  string
	Map    mapview.Config
	Stream Streamer
}

type actionRequest struct {
	Kind  string `json:"kind"`
	PodID int    `json:"pod_id"`
}

type errorResponse struct {
	Error    string             `json:"error"`
	Reason   string             `json:"reason,omitempty"`
	Snapshot *dispatch.Snapshot `json:"snapshot,omitempty"`
}

// Register mounts the session routes on mux.
func Register(mux *http.ServeMux, ctrl Controller, opts Options) {
	mux.Handle("GET /api/session", NewSnapshotHandler(ctrl))
	mux.Handle("POST /api/session/actions", requireToken(opts.Token, NewActionHandler(ctrl)))
	mux.Handle("GET /api/pods", NewPodsHandler(ctrl))
	mux.Handle("GET /api/map", NewMapHandler(ctrl, opts.Map))
	if opts.Stream != nil {
		mux.Handle("GET /api/session/stream", NewStreamHandler(opts.Stream))
	}
}

func requireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewSnapshotHandler serves GET /api/session.
func NewSnapshotHandler(ctrl Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := ctrl.Snapshot(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})
}

// NewActionHandler serves POST /api/session/actions. Accepted actions answer
// 202 with the new snapshot, rejected ones 409.
func NewActionHandler(ctrl Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("malformed body: %v", err), http.StatusBadRequest)
			return
		}
		kind, err := dispatch.ParseActionKind(req.Kind)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		snap, err := ctrl.Apply(r.Context(), dispatch.Action{Kind: kind, PodID: req.PodID})
		switch {
		case err == nil:
			writeJSON(w, http.StatusAccepted, snap)
		case isRejection(err):
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Reason: dispatch.Reason(err), Snapshot: &snap})
		default:
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		}
	})
}

func isRejection(err error) bool {
	return errors.Is(err, dispatch.ErrInvalidAction) ||
		errors.Is(err, dispatch.ErrInvalidSelection) ||
		errors.Is(err, dispatch.ErrMissingSelection)
}

// NewPodsHandler serves GET /api/pods.
func NewPodsHandler(ctrl Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.Pods())
	})
}

// NewMapHandler serves GET /api/map, focused on the selected pod if any.
func NewMapHandler(ctrl Controller, cfg mapview.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := ctrl.Snapshot(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, mapview.Build(cfg, ctrl.Pods(), snap.SelectedPod))
	})
}

// NewStreamHandler serves snapshots as server-sent events until the client
// goes away.
func NewStreamHandler(s Streamer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		sub := s.Subscribe()
		defer s.Unsubscribe(sub)
		for {
			select {
			case <-r.Context().Done():
				return
			case snap, ok := <-sub:
				if !ok {
					return
				}
				b, err := json.Marshal(snap)
				if err != nil {
					return
				}
				if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", b); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
