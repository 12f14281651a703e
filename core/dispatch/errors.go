package dispatch

import "errors"

var (
	// ErrInvalidSelection is returned when a pod id is not in the catalog.
	ErrInvalidSelection = errors.New("invalid pod selection")
	// ErrMissingSelection is reported when a pod-dependent stage is entered
	// without a selected pod. The machine falls back to default values.
	ErrMissingSelection = errors.New("no pod selected")
	// ErrTimerReentrancy is reported when a timer fires after the stage that
	// owned it has been left. The callback is discarded.
	ErrTimerReentrancy = errors.New("timer fired after its stage exited")
	// ErrInvalidAction is returned for actions not accepted by the current stage.
	ErrInvalidAction = errors.New("action not allowed in current stage")
)

// Reason maps an error to the label used in metrics and events.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, ErrMissingSelection):
		return "missing_selection"
	case errors.Is(err, ErrTimerReentrancy):
		return "timer_reentrancy"
	case errors.Is(err, ErrInvalidAction):
		return "invalid_action"
	default:
		return "error"
	}
}
