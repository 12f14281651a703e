package journal

import (
	"context"
	"slices"
	"time"

	"github.com/kilianp07/xcharge/core/events"
	"github.com/kilianp07/xcharge/core/logger"
	"github.com/kilianp07/xcharge/internal/eventbus"
)

// Recorder appends bus events to a Store.
type Recorder struct {
	store Store
	types []string
	log   logger.Logger
}

// NewRecorder creates a recorder keeping the event types selected by cfg.
func NewRecorder(store Store, cfg Config, log logger.Logger) *Recorder {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Recorder{store: store, types: cfg.Types(), log: log}
}

// Handle journals one event. Unknown and filtered events are ignored.
func (r *Recorder) Handle(ev eventbus.Event) {
	name := events.Name(ev)
	if name == "" || !slices.Contains(r.types, name) {
		return
	}
	rec, err := FromEvent(ev)
	if err != nil {
		r.log.Warnf("journal %s: %v", name, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.store.Append(ctx, rec); err != nil {
		r.log.Errorf("journal append: %v", err)
	}
}

// Run journals events from bus until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context, bus eventbus.EventBus) {
	eventbus.Forward(ctx, bus, r.Handle)
}
