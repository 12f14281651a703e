package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/xcharge/core/metrics"
)

func TestPromSink_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, s.RecordTransition(coremetrics.TransitionEvent{From: "map", To: "details", Reason: "select"}))
	require.NoError(t, s.RecordTransition(coremetrics.TransitionEvent{From: "details", To: "map", Reason: "back"}))
	require.NoError(t, s.RecordCounters(coremetrics.CounterSample{BatteryLevel: 5, LoadProgress: 42, SecondsLeft: 120}))
	require.NoError(t, s.RecordRejection(coremetrics.RejectionEvent{Stage: "map", Reason: "invalid_selection"}))
	require.NoError(t, s.RecordArrival(coremetrics.ArrivalEvent{PodID: 2, Duration: 310 * time.Second}))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.transitions.WithLabelValues("map", "details", "select")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.stage.WithLabelValues("map")))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.stage.WithLabelValues("details")))
	assert.Equal(t, 5.0, testutil.ToFloat64(s.battery))
	assert.Equal(t, 42.0, testutil.ToFloat64(s.load))
	assert.Equal(t, 120.0, testutil.ToFloat64(s.secondsLeft))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.rejections.WithLabelValues("map", "invalid_selection")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.arrivals.WithLabelValues("2")))
	assert.Equal(t, 1, testutil.CollectAndCount(s.duration))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	_ = a.RecordRejection(coremetrics.RejectionEvent{Stage: "welcome", Reason: "invalid_action"})
	_ = b.RecordRejection(coremetrics.RejectionEvent{Stage: "welcome", Reason: "invalid_action"})
	assert.Equal(t, 2.0, testutil.ToFloat64(a.rejections.WithLabelValues("welcome", "invalid_action")))
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	_ = s.RecordCounters(coremetrics.CounterSample{BatteryLevel: 6})

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "xcharge_battery_level_percent 6"))
}
