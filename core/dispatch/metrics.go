package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	staleCallbacks *prometheus.CounterVec
	activeTimers   prometheus.Gauge
)

// newCollectors creates the machine-level collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Gauge) {
	stale := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xcharge_stale_timer_callbacks_total",
			Help: "Timer callbacks discarded because their stage had already exited",
		},
		[]string{"timer"},
	)
	active := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "xcharge_active_timers",
			Help: "Number of timers owned by the current stage",
		},
	)
	return stale, active
}

func init() {
	staleCallbacks, activeTimers = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers machine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used. Collectors already
// registered are reused.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(staleCallbacks); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			panic(err)
		}
		staleCallbacks = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(activeTimers); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			panic(err)
		}
		activeTimers = are.ExistingCollector.(prometheus.Gauge)
	}
}

// ResetMetrics reinitializes the collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	staleCallbacks, activeTimers = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
