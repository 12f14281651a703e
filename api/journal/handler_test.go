package journal

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/xcharge/core/events"
	corejournal "github.com/kilianp07/xcharge/core/journal"
)

func seed(t *testing.T) corejournal.Store {
	t.Helper()
	store := corejournal.NewMemoryStore(100)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	evs := []any{
		events.StageEvent{SessionID: "s1", From: "details", To: "dispatch", PodID: 1, Reason: "pay", Time: base},
		events.StageEvent{SessionID: "s1", From: "dispatch", To: "tracking", PodID: 1, Reason: "loaded", Time: base.Add(10 * time.Second)},
		events.ArrivalEvent{SessionID: "s1", PodID: 1, Time: base.Add(190 * time.Second)},
		events.StageEvent{SessionID: "s2", From: "details", To: "dispatch", PodID: 2, Reason: "pay", Time: base.Add(time.Hour)},
	}
	for _, ev := range evs {
		rec, err := corejournal.FromEvent(ev)
		require.NoError(t, err)
		require.NoError(t, store.Append(context.Background(), rec))
	}
	return store
}

func get(t *testing.T, h http.Handler, url, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandler_AuthAndFilters(t *testing.T) {
	h := NewHandler(seed(t), "secret")

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/journal", "").Code)

	w := get(t, h, "/api/journal?pod_id=1", "secret")
	require.Equal(t, http.StatusOK, w.Code)
	var recs []corejournal.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	assert.Len(t, recs, 3)

	w = get(t, h, "/api/journal?type="+events.TypeArrival, "secret")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "s1", recs[0].SessionID)

	w = get(t, h, "/api/journal?start=2024-05-01T10:30:00Z", "secret")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "s2", recs[0].SessionID)
}

func TestHandler_CSV(t *testing.T) {
	w := get(t, NewHandler(seed(t), ""), "/api/journal?format=csv&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestHandler_Summary(t *testing.T) {
	w := get(t, NewHandler(seed(t), ""), "/api/journal?summary=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sums []struct {
		SessionID string `json:"session_id"`
		Outcome   string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sums))
	require.Len(t, sums, 2)
	assert.Equal(t, "arrived", sums[0].Outcome)
	assert.Equal(t, "in_progress", sums[1].Outcome)
}

func TestHandler_BadRequests(t *testing.T) {
	h := NewHandler(seed(t), "")
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/journal?start=yesterday", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/journal?pod_id=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/journal?format=xml", "").Code)
}
