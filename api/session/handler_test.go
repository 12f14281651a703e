package session

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/xcharge/core/catalog"
	"github.com/kilianp07/xcharge/core/dispatch"
	"github.com/kilianp07/xcharge/core/model"
	"github.com/kilianp07/xcharge/core/scheduler"
	"github.com/kilianp07/xcharge/infra/mapview"
	"github.com/kilianp07/xcharge/internal/eventbus"
)

// machineController drives a machine on a manual clock from the test goroutine.
type machineController struct {
	m     *dispatch.Machine
	clock *scheduler.Manual
	cat   *catalog.Catalog
}

func (c *machineController) Snapshot(context.Context) (dispatch.Snapshot, error) {
	return c.m.Snapshot(), nil
}

func (c *machineController) Apply(_ context.Context, a dispatch.Action) (dispatch.Snapshot, error) {
	err := c.m.Handle(a)
	return c.m.Snapshot(), err
}

func (c *machineController) Pods() []model.Pod { return c.cat.Pods() }

func newServer(t *testing.T, opts Options) (*httptest.Server, *machineController) {
	t.Helper()
	cat := catalog.Default()
	clock := scheduler.NewManual(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	cfg := dispatch.DefaultConfig()
	cfg.WelcomeDelayMS = -1
	m, err := dispatch.NewMachine(cfg, cat, clock, dispatch.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	ctrl := &machineController{m: m, clock: clock, cat: cat}
	mux := http.NewServeMux()
	Register(mux, ctrl, opts)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, ctrl
}

func postAction(t *testing.T, srv *httptest.Server, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/session/actions", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeSnapshot(t *testing.T, resp *http.Response) dispatch.Snapshot {
	t.Helper()
	var snap dispatch.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestGetSession(t *testing.T) {
	srv, _ := newServer(t, Options{})
	resp, err := http.Get(srv.URL + "/api/session")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeSnapshot(t, resp)
	assert.Equal(t, dispatch.StageWelcome, snap.Stage)
	assert.Len(t, snap.Pods, 4)
}

func TestActionFlow(t *testing.T) {
	srv, _ := newServer(t, Options{})

	resp := postAction(t, srv, `{"kind":"confirm"}`, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, dispatch.StageMap, decodeSnapshot(t, resp).Stage)

	resp = postAction(t, srv, `{"kind":"select-pod","pod_id":1}`, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	snap := decodeSnapshot(t, resp)
	assert.Equal(t, dispatch.StageDetails, snap.Stage)
	require.NotNil(t, snap.SelectedPod)
	assert.Equal(t, 1, snap.SelectedPod.ID)
	assert.Equal(t, 99, snap.ConfidenceScore)
}

func TestActionRejected(t *testing.T) {
	srv, _ := newServer(t, Options{})
	resp := postAction(t, srv, `{"kind":"pay"}`, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_action", body.Reason)
	assert.Contains(t, body.Error, "not allowed")
	require.NotNil(t, body.Snapshot)
	assert.Equal(t, dispatch.StageWelcome, body.Snapshot.Stage)
}

func TestActionUnknownPod(t *testing.T) {
	srv, _ := newServer(t, Options{})
	postAction(t, srv, `{"kind":"confirm"}`, "")
	resp := postAction(t, srv, `{"kind":"select-pod","pod_id":42}`, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestActionMalformed(t *testing.T) {
	srv, _ := newServer(t, Options{})
	assert.Equal(t, http.StatusBadRequest, postAction(t, srv, `{"kind":`, "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, postAction(t, srv, `{"kind":"teleport"}`, "").StatusCode)
}

func TestActionToken(t *testing.T) {
	srv, _ := newServer(t, Options{Token: "secret"})
	assert.Equal(t, http.StatusUnauthorized, postAction(t, srv, `{"kind":"confirm"}`, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, postAction(t, srv, `{"kind":"confirm"}`, "wrong").StatusCode)
	assert.Equal(t, http.StatusAccepted, postAction(t, srv, `{"kind":"confirm"}`, "secret").StatusCode)

	resp, err := http.Get(srv.URL + "/api/session")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newServer(t, Options{})
	resp, err := http.Get(srv.URL + "/api/session/actions")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPods(t *testing.T) {
	srv, _ := newServer(t, Options{})
	resp, err := http.Get(srv.URL + "/api/pods")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var pods []model.Pod
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pods))
	require.Len(t, pods, 4)
	assert.Equal(t, "240kW", pods[0].Power)
}

func TestMapFollowsSelection(t *testing.T) {
	srv, _ := newServer(t, Options{Map: mapview.Config{Zoom: 15}})

	get := func() mapview.View {
		resp, err := http.Get(srv.URL + "/api/map")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		var v mapview.View
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
		return v
	}

	v := get()
	require.NotNil(t, v.Bounds)
	assert.Contains(t, v.EmbedURL, "z=15")

	postAction(t, srv, `{"kind":"confirm"}`, "")
	postAction(t, srv, `{"kind":"select-pod","pod_id":1}`, "")
	v = get()
	require.NotNil(t, v.Centre)
	assert.InDelta(t, 28.4621, v.Centre.Lat, 1e-9)
}

func TestStream(t *testing.T) {
	bus := eventbus.NewTyped[dispatch.Snapshot]()
	defer bus.Close()
	bus.Publish(dispatch.Snapshot{Stage: dispatch.StageMap, BatteryLevel: 7})
	srv, _ := newServer(t, Options{Stream: bus})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/session/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	var data string
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	require.NotEmpty(t, data)
	var snap dispatch.Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	assert.Equal(t, dispatch.StageMap, snap.Stage)
	assert.Equal(t, 7, snap.BatteryLevel)
}
