package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event type names used in envelopes, MQTT topics and journal records.
const (
	TypeStage    = "stage"
	TypeCounter  = "counter"
	TypeOverlay  = "overlay"
	TypeArrival  = "arrival"
	TypeRejected = "rejected"
)

// Envelope is the serialised form of an event.
type Envelope struct {
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

// Name returns the type name of a known event, or "" otherwise.
func Name(ev any) string {
	switch ev.(type) {
	case StageEvent, *StageEvent:
		return TypeStage
	case CounterEvent, *CounterEvent:
		return TypeCounter
	case OverlayEvent, *OverlayEvent:
		return TypeOverlay
	case ArrivalEvent, *ArrivalEvent:
		return TypeArrival
	case RejectedEvent, *RejectedEvent:
		return TypeRejected
	}
	return ""
}

func timeOf(ev any) time.Time {
	switch e := ev.(type) {
	case StageEvent:
		return e.Time
	case CounterEvent:
		return e.Time
	case OverlayEvent:
		return e.Time
	case ArrivalEvent:
		return e.Time
	case RejectedEvent:
		return e.Time
	}
	return time.Time{}
}

// Wrap encodes a known event into an Envelope.
func Wrap(ev any) (Envelope, error) {
	name := Name(ev)
	if name == "" {
		return Envelope{}, fmt.Errorf("unknown event type %T", ev)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: name, Time: timeOf(ev), Data: data}, nil
}

// Decode returns the typed event held by the envelope.
func (e Envelope) Decode() (any, error) {
	switch e.Type {
	case TypeStage:
		return decode[StageEvent](e.Data)
	case TypeCounter:
		return decode[CounterEvent](e.Data)
	case TypeOverlay:
		return decode[OverlayEvent](e.Data)
	case TypeArrival:
		return decode[ArrivalEvent](e.Data)
	case TypeRejected:
		return decode[RejectedEvent](e.Data)
	}
	return nil, fmt.Errorf("unknown event type %q", e.Type)
}

func decode[T any](data []byte) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
