package dispatch

import (
	"fmt"
	"strings"
)

// ActionKind enumerates the user actions accepted by the state machine.
type ActionKind string

const (
	ActionSelectPod ActionKind = "select-pod"
	ActionConfirm   ActionKind = "confirm"
	ActionBack      ActionKind = "back"
	ActionAbort     ActionKind = "abort"
	ActionPay       ActionKind = "pay"
)

// ParseActionKind validates an action name.
func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case ActionSelectPod, ActionConfirm, ActionBack, ActionAbort, ActionPay:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidAction, s)
}

// Action is the only inbound event of the state machine. PodID is only
// meaningful for ActionSelectPod.
type Action struct {
	Kind  ActionKind `json:"kind"`
	PodID int        `json:"pod_id,omitempty"`
}

// SelectPod builds a select-pod action.
func SelectPod(id int) Action { return Action{Kind: ActionSelectPod, PodID: id} }

// Confirm builds a confirm action.
func Confirm() Action { return Action{Kind: ActionConfirm} }

// Back builds a back action.
func Back() Action { return Action{Kind: ActionBack} }

// Abort builds an abort action.
func Abort() Action { return Action{Kind: ActionAbort} }

// Pay builds a pay action.
func Pay() Action { return Action{Kind: ActionPay} }

func (a Action) String() string {
	if a.Kind == ActionSelectPod {
		return fmt.Sprintf("%s(%d)", a.Kind, a.PodID)
	}
	return string(a.Kind)
}
