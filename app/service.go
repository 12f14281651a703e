package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/kilianp07/xcharge/api/journal"
	"github.com/kilianp07/xcharge/api/session"
	"github.com/kilianp07/xcharge/config"
	"github.com/kilianp07/xcharge/core/catalog"
	"github.com/kilianp07/xcharge/core/dispatch"
	corejournal "github.com/kilianp07/xcharge/core/journal"
	coremetrics "github.com/kilianp07/xcharge/core/metrics"
	"github.com/kilianp07/xcharge/core/model"
	coremqtt "github.com/kilianp07/xcharge/core/mqtt"
	"github.com/kilianp07/xcharge/core/scheduler"
	"github.com/kilianp07/xcharge/infra/logger"
	"github.com/kilianp07/xcharge/infra/metrics"
	"github.com/kilianp07/xcharge/infra/mqtt"
	"github.com/kilianp07/xcharge/internal/eventbus"
)

// Service owns the dispatch machine and everything hanging off its events:
// the journal, the MQTT mirror, metrics and the snapshot feed used by the
// terminal view and the HTTP API. The machine only ever runs on the loop
// goroutine; other goroutines reach it through Apply, Post and Snapshot.
type Service struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	loop    *scheduler.Loop
	machine *dispatch.Machine
	bus     *eventbus.Bus
	snaps   *eventbus.TypedBus[dispatch.Snapshot]
	sink    coremetrics.MetricsSink
	journal corejournal.Store
	mqtt    coremqtt.Client
	log     logger.Logger
	started atomic.Bool

	closers []func() error
}

// Option customises New.
type Option func(*Service)

// WithMQTTClient replaces the paho client built from cfg.MQTT.
func WithMQTTClient(c coremqtt.Client) Option { return func(s *Service) { s.mqtt = c } }

// WithJournalStore replaces the store opened from cfg.Journal.
func WithJournalStore(st corejournal.Store) Option { return func(s *Service) { s.journal = st } }

// WithCatalog replaces the catalog loaded from cfg.Catalog.
func WithCatalog(c *catalog.Catalog) Option { return func(s *Service) { s.catalog = c } }

// snapshotPublisher feeds the event bus and refreshes the snapshot feed
// after every machine event. It runs on the loop goroutine.
type snapshotPublisher struct{ s *Service }

func (p snapshotPublisher) Publish(ev eventbus.Event) {
	p.s.bus.Publish(ev)
	if p.s.machine != nil {
		p.s.snaps.Publish(p.s.machine.Snapshot())
	}
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:   cfg,
		loop:  scheduler.NewLoop(256),
		bus:   eventbus.New(),
		snaps: eventbus.NewTyped[dispatch.Snapshot](),
		log:   logger.New("service"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.catalog == nil {
		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		s.catalog = cat
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, err
	}
	s.sink = sink

	if s.journal == nil && cfg.Journal.Enabled {
		st, err := corejournal.Open(cfg.Journal)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		s.journal = st
	}
	if s.journal != nil {
		s.closers = append(s.closers, s.journal.Close)
	}

	if s.mqtt == nil && cfg.MQTT.Enabled() {
		cli, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = s.closeAll()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = cli
	}
	if s.mqtt != nil {
		s.closers = append(s.closers, func() error { s.mqtt.Disconnect(); return nil })
	}

	m, err := dispatch.NewMachine(cfg.Dispatch, s.catalog, s.loop,
		dispatch.WithLogger(logger.New("dispatch")),
		dispatch.WithMetrics(s.sink),
		dispatch.WithPublisher(snapshotPublisher{s: s}),
	)
	if err != nil {
		_ = s.closeAll()
		return nil, fmt.Errorf("dispatch machine: %w", err)
	}
	s.machine = m
	s.snaps.Publish(m.Snapshot())
	return s, nil
}

// Start launches the loop and the event consumers. It returns once every
// consumer is subscribed, so no event published afterwards is missed.
func (s *Service) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("service already started")
	}
	if s.journal != nil {
		rec := corejournal.NewRecorder(s.journal, s.cfg.Journal, logger.New("journal"))
		eventbus.Attach(ctx, s.bus, rec.Handle)
	}
	if s.mqtt != nil {
		mirror := mqtt.NewEventMirror(s.mqtt, s.cfg.MQTT)
		eventbus.Attach(ctx, s.bus, mirror.Handle)
		if err := mqtt.SubscribeActions(s.mqtt, s.cfg.MQTT, s.Post); err != nil {
			return fmt.Errorf("subscribe actions: %w", err)
		}
	}
	if s.cfg.Metrics.HasSink("prometheus") && s.cfg.Metrics.PrometheusAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go func() {
		if err := s.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Errorf("loop: %v", err)
		}
	}()
	s.log.Infof("dispatch view started with %d pods", len(s.catalog.Pods()))
	return nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Apply runs a on the loop and returns the snapshot taken right after it.
func (s *Service) Apply(ctx context.Context, a dispatch.Action) (dispatch.Snapshot, error) {
	var (
		snap dispatch.Snapshot
		herr error
	)
	if err := s.loop.Do(ctx, func() {
		herr = s.machine.Handle(a)
		snap = s.machine.Snapshot()
	}); err != nil {
		return dispatch.Snapshot{}, err
	}
	if herr != nil {
		s.log.Debugf("action %s rejected: %v", a, herr)
	}
	return snap, herr
}

// Post queues a without waiting. Rejections are only logged.
func (s *Service) Post(a dispatch.Action) {
	ok := s.loop.Post(func() {
		if err := s.machine.Handle(a); err != nil {
			s.log.Debugf("action %s rejected: %v", a, err)
		}
	})
	if !ok {
		s.log.Warnf("action %s dropped: loop stopped", a)
	}
}

// Snapshot returns the current state, read on the loop.
func (s *Service) Snapshot(ctx context.Context) (dispatch.Snapshot, error) {
	var snap dispatch.Snapshot
	err := s.loop.Do(ctx, func() { snap = s.machine.Snapshot() })
	return snap, err
}

// Pods returns the catalog.
func (s *Service) Pods() []model.Pod { return s.catalog.Pods() }

// Catalog returns the loaded catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Snapshots is the feed of machine state, refreshed on every event.
func (s *Service) Snapshots() *eventbus.TypedBus[dispatch.Snapshot] { return s.snaps }

// Events is the machine event bus.
func (s *Service) Events() eventbus.EventBus { return s.bus }

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	session.Register(mux, s, session.Options{Token: s.cfg.HTTP.Token, Map: s.cfg.Map, Stream: s.snaps})
	if s.journal != nil {
		mux.Handle("GET /api/journal", journal.NewHandler(s.journal, s.cfg.HTTP.Token))
	}
	if s.cfg.Metrics.HasSink("prometheus") {
		mux.Handle("GET /metrics", metrics.Handler(nil))
	}
	return mux
}

// Serve starts the service and the HTTP API on cfg.HTTP.Addr until ctx is
// cancelled.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()
	s.log.Infof("serving api on %s", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) closeAll() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if !s.started.Load() {
		s.machine.Close()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.loop.Do(ctx, s.machine.Close); errors.Is(err, scheduler.ErrLoopStopped) {
			// the loop is gone, nothing else touches the machine
			s.machine.Close()
		}
	}
	s.bus.Close()
	s.snaps.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return s.closeAll()
}
