package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/xcharge/core/metrics"
	"github.com/kilianp07/xcharge/infra/logger"
)

// InfluxSink writes session events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTransition writes a stage_transition point.
func (s *InfluxSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	p := write.NewPointWithMeasurement("stage_transition").
		AddTag("from", ev.From).
		AddTag("to", ev.To).
		AddTag("reason", ev.Reason).
		AddTag("component", "dispatch_machine")
	if ev.SessionID != "" {
		p = p.AddTag("session_id", ev.SessionID)
	}
	p = p.AddField("pod_id", ev.PodID).SetTime(ev.Time)
	return s.write(p)
}

// RecordCounters writes a session_counters point.
func (s *InfluxSink) RecordCounters(c coremetrics.CounterSample) error {
	p := write.NewPointWithMeasurement("session_counters").
		AddTag("stage", c.Stage).
		AddField("battery_level", c.BatteryLevel).
		AddField("load_progress", c.LoadProgress).
		AddField("seconds_left", c.SecondsLeft).
		AddField("trivia_index", c.TriviaIndex).
		SetTime(c.Time)
	return s.write(p)
}

// RecordRejection writes an action_rejected point.
func (s *InfluxSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	p := write.NewPointWithMeasurement("action_rejected").
		AddTag("stage", ev.Stage).
		AddTag("reason", ev.Reason).
		AddField("action", ev.Action).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordArrival writes a pod_arrival point.
func (s *InfluxSink) RecordArrival(ev coremetrics.ArrivalEvent) error {
	p := write.NewPointWithMeasurement("pod_arrival").
		AddTag("pod_id", strconv.Itoa(ev.PodID)).
		AddTag("session_id", ev.SessionID).
		AddField("duration_s", ev.Duration.Seconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }
