// Package events defines the session events emitted on the event bus.
//
// Available event types:
//   - StageEvent: the state machine entered a new stage
//   - CounterEvent: a timer-driven counter changed value
//   - OverlayEvent: the payment overlay was opened or closed
//   - ArrivalEvent: the tracking countdown reached zero
//   - RejectedEvent: an action was refused
//
// Envelope wraps any of them with a type name for serialisation.
package events
