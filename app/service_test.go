package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/xcharge/config"
	"github.com/kilianp07/xcharge/core/dispatch"
	"github.com/kilianp07/xcharge/core/events"
	corejournal "github.com/kilianp07/xcharge/core/journal"
	"github.com/kilianp07/xcharge/infra/mqtt"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Dispatch.WelcomeDelayMS = -1
	cfg.Dispatch.LoadStep = 50
	cfg.Dispatch.LoadIntervalMS = 5
	cfg.Dispatch.CountdownMS = 2
	cfg.Journal.Enabled = true
	cfg.Journal.Backend = corejournal.BackendMemory
	return cfg
}

func newService(t *testing.T) (*Service, *mqtt.MockPublisher, corejournal.Store, context.CancelFunc) {
	t.Helper()
	cfg := testConfig()
	mq := mqtt.NewMockPublisher()
	store := corejournal.NewMemoryStore(1000)
	svc, err := New(cfg, WithMQTTClient(mq), WithJournalStore(store))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = svc.Close()
	})
	return svc, mq, store, cancel
}

func TestServiceDispatchToArrival(t *testing.T) {
	svc, mq, store, _ := newService(t)
	ctx := context.Background()

	snap, err := svc.Apply(ctx, dispatch.Confirm())
	require.NoError(t, err)
	assert.Equal(t, dispatch.StageMap, snap.Stage)

	snap, err = svc.Apply(ctx, dispatch.SelectPod(4))
	require.NoError(t, err)
	assert.Equal(t, dispatch.StageDetails, snap.Stage)

	_, err = svc.Apply(ctx, dispatch.Pay())
	require.ErrorIs(t, err, dispatch.ErrInvalidAction)

	_, err = svc.Apply(ctx, dispatch.Confirm())
	require.NoError(t, err)
	snap, err = svc.Apply(ctx, dispatch.Pay())
	require.NoError(t, err)
	assert.Equal(t, dispatch.StageDispatch, snap.Stage)

	require.Eventually(t, func() bool {
		s, err := svc.Snapshot(ctx)
		return err == nil && s.Arrived
	}, 5*time.Second, 10*time.Millisecond)

	latest, ok := svc.Snapshots().Latest()
	require.True(t, ok)
	assert.Equal(t, dispatch.StageTracking, latest.Stage)
	assert.Equal(t, 0, latest.SecondsLeft)

	require.Eventually(t, func() bool {
		recs, err := store.Query(ctx, corejournal.Query{Types: []string{events.TypeArrival}})
		return err == nil && len(recs) == 1
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		for _, m := range mq.Sent() {
			if m.Topic == "xcharge/events/"+events.TypeArrival {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestServiceRemoteAction(t *testing.T) {
	svc, mq, _, _ := newService(t)
	require.True(t, mq.Deliver("xcharge/actions", []byte(`{"kind":"confirm"}`)))
	require.Eventually(t, func() bool {
		s, err := svc.Snapshot(context.Background())
		return err == nil && s.Stage == dispatch.StageMap
	}, time.Second, 5*time.Millisecond)

	// malformed payloads are dropped
	require.True(t, mq.Deliver("xcharge/actions", []byte(`nope`)))
	s, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dispatch.StageMap, s.Stage)
}

func TestServiceHandler(t *testing.T) {
	svc, _, _, _ := newService(t)
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/session/actions", "application/json", strings.NewReader(`{"kind":"confirm"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/journal")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recs []corejournal.Record
	require.Eventually(t, func() bool {
		r, err := http.Get(srv.URL + "/api/journal?type=" + events.TypeStage)
		if err != nil {
			return false
		}
		defer func() { _ = r.Body.Close() }()
		return json.NewDecoder(r.Body).Decode(&recs) == nil && len(recs) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "map", recs[0].Stage)
}

func TestServiceApplyAfterStop(t *testing.T) {
	svc, _, _, cancel := newService(t)
	cancel()
	require.Eventually(t, func() bool {
		_, err := svc.Snapshot(context.Background())
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestServiceDoubleStart(t *testing.T) {
	svc, _, _, _ := newService(t)
	assert.Error(t, svc.Start(context.Background()))
}

func TestNewRejectsBadCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Path = "/does/not/exist.yaml"
	_, err := New(cfg)
	assert.ErrorContains(t, err, "catalog")
}
