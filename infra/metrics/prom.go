package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/xcharge/core/metrics"
)

var stages = []string{"welcome", "map", "details", "dispatch", "tracking"}

// PromSink records session activity in Prometheus metrics.
type PromSink struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	stage       *prometheus.GaugeVec
	battery     prometheus.Gauge
	load        prometheus.Gauge
	secondsLeft prometheus.Gauge
	arrivals    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewPromSink registers session metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xcharge_stage_transitions_total",
			Help: "Stage transitions of the dispatch view",
		}, []string{"from", "to", "reason"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xcharge_rejected_actions_total",
			Help: "Actions and timer callbacks refused by the state machine",
		}, []string{"stage", "reason"}),
		stage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xcharge_stage",
			Help: "1 for the stage currently shown, 0 otherwise",
		}, []string{"stage"}),
		battery: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xcharge_battery_level_percent",
			Help: "Simulated vehicle battery level",
		}),
		load: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xcharge_load_progress_percent",
			Help: "Dispatch loading progress",
		}),
		secondsLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xcharge_eta_seconds_left",
			Help: "Seconds until the dispatched pod arrives",
		}),
		arrivals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xcharge_arrivals_total",
			Help: "Dispatches whose countdown reached zero",
		}, []string{"pod_id"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xcharge_dispatch_duration_seconds",
			Help:    "Time between payment confirmation and arrival",
			Buckets: []float64{30, 60, 120, 180, 300, 600, 900},
		}, []string{"pod_id"}),
	}
	var err error
	if s.transitions, err = register(reg, s.transitions); err != nil {
		return nil, err
	}
	if s.rejections, err = register(reg, s.rejections); err != nil {
		return nil, err
	}
	if s.stage, err = register(reg, s.stage); err != nil {
		return nil, err
	}
	if s.battery, err = register(reg, s.battery); err != nil {
		return nil, err
	}
	if s.load, err = register(reg, s.load); err != nil {
		return nil, err
	}
	if s.secondsLeft, err = register(reg, s.secondsLeft); err != nil {
		return nil, err
	}
	if s.arrivals, err = register(reg, s.arrivals); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTransition counts the transition and flags the new stage.
func (s *PromSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	s.transitions.WithLabelValues(ev.From, ev.To, ev.Reason).Inc()
	for _, st := range stages {
		v := 0.0
		if st == ev.To {
			v = 1
		}
		s.stage.WithLabelValues(st).Set(v)
	}
	return nil
}

// RecordCounters updates the counter gauges.
func (s *PromSink) RecordCounters(c coremetrics.CounterSample) error {
	s.battery.Set(float64(c.BatteryLevel))
	s.load.Set(float64(c.LoadProgress))
	s.secondsLeft.Set(float64(c.SecondsLeft))
	return nil
}

// RecordRejection counts refused actions.
func (s *PromSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	s.rejections.WithLabelValues(ev.Stage, ev.Reason).Inc()
	return nil
}

// RecordArrival counts arrivals and observes the dispatch duration.
func (s *PromSink) RecordArrival(ev coremetrics.ArrivalEvent) error {
	id := strconv.Itoa(ev.PodID)
	s.arrivals.WithLabelValues(id).Inc()
	if ev.Duration > 0 {
		s.duration.WithLabelValues(id).Observe(ev.Duration.Seconds())
	}
	return nil
}
