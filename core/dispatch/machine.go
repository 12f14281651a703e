package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/xcharge/core/catalog"
	"github.com/kilianp07/xcharge/core/events"
	"github.com/kilianp07/xcharge/core/logger"
	"github.com/kilianp07/xcharge/core/metrics"
	"github.com/kilianp07/xcharge/core/monitoring"
	"github.com/kilianp07/xcharge/core/scheduler"
	"github.com/kilianp07/xcharge/internal/eventbus"
)

// Publisher receives the events emitted by the machine.
type Publisher interface {
	Publish(eventbus.Event)
}

// Machine drives a Session through welcome, map, details, dispatch and
// tracking. It is not safe for concurrent use: Handle, Snapshot and every
// scheduler callback must run on the same goroutine, which is what
// scheduler.Manual and scheduler.Loop provide.
type Machine struct {
	cfg     Config
	catalog *catalog.Catalog
	sched   scheduler.Scheduler
	now     func() time.Time
	log     logger.Logger
	metrics metrics.MetricsSink
	bus     Publisher

	sess       Session
	timers     scheduler.Group
	dispatched time.Time
	stale      int
	// epoch counts stage entries. Timer callbacks compare it with the value
	// captured when they were registered.
	epoch uint64
}

// Option customises a Machine.
type Option func(*Machine)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(m *Machine) { m.log = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(s metrics.MetricsSink) Option { return func(m *Machine) { m.metrics = s } }

// WithPublisher sets the event bus the machine publishes to.
func WithPublisher(p Publisher) Option { return func(m *Machine) { m.bus = p } }

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) Option { return func(m *Machine) { m.now = now } }

// NewMachine returns a machine in the welcome stage.
func NewMachine(cfg Config, cat *catalog.Catalog, sched scheduler.Scheduler, opts ...Option) (*Machine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch config: %w", err)
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	m := &Machine{
		cfg:     cfg,
		catalog: cat,
		sched:   sched,
		now:     time.Now,
		log:     logger.NopLogger{},
		metrics: metrics.NopSink{},
	}
	for _, o := range opts {
		o(m)
	}
	m.sess = Session{Stage: StageWelcome, BatteryLevel: cfg.BatteryStart}
	return m, nil
}

// Config returns the effective configuration.
func (m *Machine) Config() Config { return m.cfg }

// Stage returns the current stage.
func (m *Machine) Stage() Stage { return m.sess.Stage }

// Session returns a copy of the session. The selected pod is copied too.
func (m *Machine) Session() Session {
	s := m.sess
	if s.SelectedPod != nil {
		p := *s.SelectedPod
		s.SelectedPod = &p
	}
	return s
}

// StaleCallbacks returns how many timer callbacks were discarded.
func (m *Machine) StaleCallbacks() int { return m.stale }

// ActiveTimers returns the number of timers owned by the current stage.
func (m *Machine) ActiveTimers() int { return m.timers.Len() }

// Snapshot returns everything a front-end needs to render the current stage.
func (m *Machine) Snapshot() Snapshot {
	s := m.Session()
	return Snapshot{
		SessionID:        s.ID,
		Stage:            s.Stage,
		SelectedPod:      s.SelectedPod,
		ConfidenceScore:  s.ConfidenceScore,
		LoadProgress:     s.LoadProgress,
		SecondsLeft:      s.SecondsLeft,
		Countdown:        FormatCountdown(s.SecondsLeft),
		TrackingProgress: trackingProgress(s.SecondsLeft, s.TrackingTotal),
		BatteryLevel:     s.BatteryLevel,
		LowBattery:       s.BatteryLevel <= m.cfg.LowBattery,
		TriviaIndex:      s.TriviaIndex,
		Trivia:           m.catalog.TriviaAt(s.TriviaIndex),
		PaymentOpen:      s.PaymentOpen,
		Quote:            m.cfg.Quote(),
		Filling:          s.Filling,
		Arrived:          s.Arrived,
		Pods:             m.catalog.Pods(),
	}
}

// Handle applies a user action. Rejected actions leave the session
// untouched and return an error wrapping one of the package sentinels.
func (m *Machine) Handle(a Action) error {
	var err error
	switch a.Kind {
	case ActionSelectPod:
		err = m.selectPod(a.PodID)
	case ActionConfirm:
		err = m.confirm()
	case ActionBack:
		err = m.back()
	case ActionAbort:
		err = m.abort()
	case ActionPay:
		err = m.pay()
	default:
		err = fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a.Kind)
	}
	if err != nil {
		m.reject(a.String(), err)
	}
	return err
}

// Close cancels every running timer. The machine must not be used afterwards.
func (m *Machine) Close() {
	m.timers.CancelAll()
	activeTimers.Set(0)
}

func (m *Machine) notAllowed(a ActionKind) error {
	return fmt.Errorf("%w: %s during %s", ErrInvalidAction, a, m.sess.Stage)
}

func (m *Machine) selectPod(id int) error {
	if m.sess.Stage != StageMap {
		return m.notAllowed(ActionSelectPod)
	}
	pod, err := m.catalog.Lookup(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	m.sess.SelectedPod = &pod
	m.sess.ConfidenceScore = pod.Confidence()
	m.transition(StageDetails, "select")
	return nil
}

func (m *Machine) confirm() error {
	switch m.sess.Stage {
	case StageWelcome:
		if m.sess.Filling {
			return fmt.Errorf("%w: welcome transition already pending", ErrInvalidAction)
		}
		delay := m.cfg.WelcomeDelay()
		if delay <= 0 {
			m.transition(StageMap, "enter")
			return nil
		}
		m.sess.Filling = true
		m.after(StageWelcome, "welcome", delay, func() {
			m.sess.Filling = false
			m.transition(StageMap, "enter")
		})
		return nil
	case StageDetails:
		if m.cfg.SkipPayment {
			m.startDispatch()
			return nil
		}
		if m.sess.PaymentOpen {
			return fmt.Errorf("%w: payment already pending", ErrInvalidAction)
		}
		m.setPaymentOpen(true)
		return nil
	}
	return m.notAllowed(ActionConfirm)
}

func (m *Machine) pay() error {
	if m.sess.Stage != StageDetails || (!m.sess.PaymentOpen && !m.cfg.SkipPayment) {
		return m.notAllowed(ActionPay)
	}
	m.setPaymentOpen(false)
	m.startDispatch()
	return nil
}

func (m *Machine) back() error {
	if m.sess.Stage != StageDetails {
		return m.notAllowed(ActionBack)
	}
	if m.sess.PaymentOpen {
		m.setPaymentOpen(false)
		return nil
	}
	m.returnToMap("back")
	return nil
}

func (m *Machine) abort() error {
	switch m.sess.Stage {
	case StageDetails, StageDispatch, StageTracking:
		m.returnToMap("abort")
		return nil
	}
	return m.notAllowed(ActionAbort)
}

func (m *Machine) setPaymentOpen(open bool) {
	if m.sess.PaymentOpen == open {
		return
	}
	m.sess.PaymentOpen = open
	m.publish(events.OverlayEvent{PodID: m.podID(), Open: open, Time: m.now()})
}

func (m *Machine) startDispatch() {
	if m.sess.SelectedPod == nil {
		m.missingSelection(StageDispatch)
	}
	m.sess.ID = uuid.NewString()
	m.dispatched = m.now()
	m.transition(StageDispatch, "paid")
}

func (m *Machine) podID() int {
	if p := m.sess.SelectedPod; p != nil {
		return p.ID
	}
	return 0
}

// returnToMap drops the selection. The transition is still reported with
// the session and pod being left.
func (m *Machine) returnToMap(why string) {
	sid, pod := m.sess.ID, m.podID()
	m.sess.clearSelection()
	m.transitionWith(StageMap, why, sid, pod)
}

// transition cancels the timers of the stage being left, switches stage,
// starts the timers of the new stage and notifies observers.
func (m *Machine) transition(to Stage, why string) {
	m.transitionWith(to, why, m.sess.ID, m.podID())
}

func (m *Machine) transitionWith(to Stage, why, sid string, podID int) {
	from := m.sess.Stage
	m.timers.CancelAll()
	m.epoch++
	m.sess.Stage = to
	switch to {
	case StageMap:
		m.startBatteryDrain()
	case StageDispatch:
		m.startLoading()
	case StageTracking:
		m.startTracking()
	}
	activeTimers.Set(float64(m.timers.Len()))

	now := m.now()
	m.log.Debugw("stage transition", map[string]any{
		"from": from.String(), "to": to.String(), "reason": why, "pod_id": podID, "session_id": sid,
	})
	if err := m.metrics.RecordTransition(metrics.TransitionEvent{
		SessionID: sid, From: from.String(), To: to.String(), PodID: podID, Reason: why, Time: now,
	}); err != nil {
		m.log.Warnf("record transition: %v", err)
	}
	m.publish(events.StageEvent{
		SessionID: sid, From: from.String(), To: to.String(), PodID: podID, Reason: why, Time: now,
	})
}

func (m *Machine) startBatteryDrain() {
	if m.sess.BatteryLevel <= m.cfg.Floor() {
		return
	}
	m.every(StageMap, "battery", m.cfg.BatteryDrain(), func(h scheduler.Handle) {
		if m.sess.BatteryLevel > m.cfg.Floor() {
			m.sess.BatteryLevel--
			m.counter(events.CounterBattery, m.sess.BatteryLevel)
		}
		if m.sess.BatteryLevel <= m.cfg.Floor() {
			h.Cancel()
		}
	})
}

func (m *Machine) startLoading() {
	m.sess.LoadProgress = 0
	m.every(StageDispatch, "load", m.cfg.LoadInterval(), func(h scheduler.Handle) {
		p := m.sess.LoadProgress + m.cfg.LoadStep
		if p > 100 {
			p = 100
		}
		m.sess.LoadProgress = p
		m.counter(events.CounterLoad, p)
		if p < 100 {
			return
		}
		h.Cancel()
		if d := m.cfg.CompletionDelay(); d > 0 {
			m.after(StageDispatch, "completion", d, func() { m.transition(StageTracking, "loaded") })
			return
		}
		m.transition(StageTracking, "loaded")
	})
	n := m.catalog.TriviaLen()
	if n == 0 {
		return
	}
	m.every(StageDispatch, "trivia", m.cfg.TriviaInterval(), func(scheduler.Handle) {
		m.sess.TriviaIndex = (m.sess.TriviaIndex + 1) % n
		m.counter(events.CounterTrivia, m.sess.TriviaIndex)
	})
}

func (m *Machine) startTracking() {
	eta := m.cfg.DefaultETASeconds
	if p := m.sess.SelectedPod; p != nil {
		eta = p.ETASeconds()
	} else {
		m.missingSelection(StageTracking)
	}
	m.sess.SecondsLeft = eta
	m.sess.TrackingTotal = eta
	m.sess.Arrived = false
	if eta <= 0 {
		m.arrive()
		return
	}
	m.every(StageTracking, "countdown", m.cfg.CountdownTick(), func(h scheduler.Handle) {
		if m.sess.SecondsLeft <= 0 {
			h.Cancel()
			return
		}
		m.sess.SecondsLeft--
		m.counter(events.CounterCountdown, m.sess.SecondsLeft)
		if m.sess.SecondsLeft == 0 {
			h.Cancel()
			m.arrive()
		}
	})
}

func (m *Machine) arrive() {
	m.sess.Arrived = true
	now := m.now()
	podID := m.podID()
	m.log.Infof("pod %d arrived for dispatch %s", podID, m.sess.ID)
	if rec, ok := m.metrics.(metrics.ArrivalRecorder); ok {
		ev := metrics.ArrivalEvent{SessionID: m.sess.ID, PodID: podID, Time: now}
		if !m.dispatched.IsZero() {
			ev.Duration = now.Sub(m.dispatched)
		}
		if err := rec.RecordArrival(ev); err != nil {
			m.log.Warnf("record arrival: %v", err)
		}
	}
	m.publish(events.ArrivalEvent{SessionID: m.sess.ID, PodID: podID, Time: now})
}

// every schedules a periodic callback owned by stage. The callback receives
// its own handle so it can stop itself.
func (m *Machine) every(stage Stage, name string, period time.Duration, fn func(scheduler.Handle)) {
	var h scheduler.Handle
	epoch := m.epoch
	h = m.sched.Every(period, func() {
		if !m.owns(h, epoch, stage, name) {
			return
		}
		fn(h)
	})
	m.timers.Add(h)
}

// after schedules a one-shot callback owned by stage. One-shot handles are
// already inactive when they fire, so only the epoch tells a late callback
// from a live one.
func (m *Machine) after(stage Stage, name string, delay time.Duration, fn func()) {
	fired := false
	epoch := m.epoch
	h := m.sched.After(delay, func() {
		if fired || m.epoch != epoch || m.sess.Stage != stage {
			m.staleCallback(name)
			return
		}
		fired = true
		fn()
	})
	m.timers.Add(h)
}

// owns reports whether a callback may still act: its handle must be live and
// the machine must still be in the stage entry that created it.
func (m *Machine) owns(h scheduler.Handle, epoch uint64, stage Stage, name string) bool {
	if h != nil && h.Active() && m.epoch == epoch && m.sess.Stage == stage {
		return true
	}
	m.staleCallback(name)
	return false
}

func (m *Machine) staleCallback(name string) {
	m.stale++
	staleCallbacks.WithLabelValues(name).Inc()
	err := fmt.Errorf("%w: %s", ErrTimerReentrancy, name)
	m.log.Debugf("discarding timer callback: %v", err)
	m.reject("timer:"+name, err)
}

func (m *Machine) missingSelection(stage Stage) {
	err := fmt.Errorf("%w: entering %s, using default eta %ds", ErrMissingSelection, stage, m.cfg.DefaultETASeconds)
	m.log.Warnf("%v", err)
	monitoring.CaptureException(err, map[string]string{"stage": stage.String()})
	m.reject("enter:"+stage.String(), err)
}

func (m *Machine) reject(action string, err error) {
	now := m.now()
	r := Reason(err)
	if !errors.Is(err, ErrTimerReentrancy) && !errors.Is(err, ErrMissingSelection) {
		m.log.Debugf("rejected %s in %s: %v", action, m.sess.Stage, err)
	}
	if rec, ok := m.metrics.(metrics.RejectionRecorder); ok {
		if rerr := rec.RecordRejection(metrics.RejectionEvent{Action: action, Stage: m.sess.Stage.String(), Reason: r, Time: now}); rerr != nil {
			m.log.Warnf("record rejection: %v", rerr)
		}
	}
	m.publish(events.RejectedEvent{Action: action, Stage: m.sess.Stage.String(), Reason: r, Time: now})
}

func (m *Machine) counter(name string, value int) {
	now := m.now()
	if rec, ok := m.metrics.(metrics.CounterRecorder); ok {
		if err := rec.RecordCounters(metrics.CounterSample{
			Stage:        m.sess.Stage.String(),
			BatteryLevel: m.sess.BatteryLevel,
			LoadProgress: m.sess.LoadProgress,
			SecondsLeft:  m.sess.SecondsLeft,
			TriviaIndex:  m.sess.TriviaIndex,
			Time:         now,
		}); err != nil {
			m.log.Warnf("record counters: %v", err)
		}
	}
	m.publish(events.CounterEvent{Counter: name, Value: value, Time: now})
}

func (m *Machine) publish(ev eventbus.Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}
