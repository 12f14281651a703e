package dispatch

import (
	"fmt"
	"strings"
)

// Stage is the screen the dispatch flow is currently showing.
type Stage int

const (
	StageWelcome Stage = iota
	StageMap
	StageDetails
	StageDispatch
	StageTracking
)

var stageNames = [...]string{
	StageWelcome:  "welcome",
	StageMap:      "map",
	StageDetails:  "details",
	StageDispatch: "dispatch",
	StageTracking: "tracking",
}

// String returns the canonical lower-case stage name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// NeedsPod reports whether the stage requires a selected pod.
func (s Stage) NeedsPod() bool {
	return s == StageDetails || s == StageDispatch || s == StageTracking
}

// ParseStage converts a stage name, accepting the "loading" and "success"
// aliases used by some front-ends.
func ParseStage(name string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "welcome":
		return StageWelcome, nil
	case "map":
		return StageMap, nil
	case "details":
		return StageDetails, nil
	case "dispatch", "loading":
		return StageDispatch, nil
	case "tracking", "success":
		return StageTracking, nil
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(b []byte) error {
	v, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
