package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kilianp07/xcharge/core/dispatch"
	"github.com/kilianp07/xcharge/core/events"
	coremqtt "github.com/kilianp07/xcharge/core/mqtt"
	"github.com/kilianp07/xcharge/infra/logger"
	"github.com/kilianp07/xcharge/internal/eventbus"
)

// EventMirror republishes bus events as JSON envelopes on
// <prefix>/events/<type>.
type EventMirror struct {
	pub    coremqtt.Publisher
	cfg    Config
	allow  map[string]bool
	logger logger.Logger
}

// NewEventMirror creates a mirror publishing through pub.
func NewEventMirror(pub coremqtt.Publisher, cfg Config) *EventMirror {
	cfg.SetDefaults()
	m := &EventMirror{pub: pub, cfg: cfg, logger: logger.New("mqtt_mirror")}
	if len(cfg.Events) > 0 {
		m.allow = make(map[string]bool, len(cfg.Events))
		for _, e := range cfg.Events {
			m.allow[e] = true
		}
	}
	return m
}

// Handle publishes a single event. Unknown or filtered events are ignored.
func (m *EventMirror) Handle(ev eventbus.Event) {
	name := events.Name(ev)
	if name == "" || (m.allow != nil && !m.allow[name]) {
		return
	}
	env, err := events.Wrap(ev)
	if err != nil {
		m.logger.Errorf("wrap %s event: %v", name, err)
		return
	}
	payload, err := json.Marshal(env)
	if err != nil {
		m.logger.Errorf("encode %s event: %v", name, err)
		return
	}
	if err := m.pub.Publish(m.cfg.EventTopic(name), payload); err != nil {
		m.logger.Warnf("mirror %s event: %v", name, err)
	}
}

// Run mirrors events from bus until ctx is cancelled.
func (m *EventMirror) Run(ctx context.Context, bus eventbus.EventBus) {
	eventbus.Forward(ctx, bus, m.Handle)
}

// DecodeAction parses a remote action payload such as
// {"kind":"select-pod","pod_id":2}.
func DecodeAction(payload []byte) (dispatch.Action, error) {
	var a dispatch.Action
	if err := json.Unmarshal(payload, &a); err != nil {
		return dispatch.Action{}, fmt.Errorf("decode action: %w", err)
	}
	kind, err := dispatch.ParseActionKind(string(a.Kind))
	if err != nil {
		return dispatch.Action{}, err
	}
	a.Kind = kind
	return a, nil
}

// SubscribeActions forwards every valid action received on the action topic
// to fn. Malformed payloads are logged and dropped.
func SubscribeActions(cli coremqtt.Client, cfg Config, fn func(dispatch.Action)) error {
	cfg.SetDefaults()
	log := logger.New("mqtt_actions")
	return cli.Subscribe(cfg.ActionTopic(), func(topic string, payload []byte) {
		a, err := DecodeAction(payload)
		if err != nil {
			log.Warnf("%s: %v", topic, err)
			return
		}
		fn(a)
	})
}
