package dispatch

import (
	"fmt"
	"math"

	"github.com/kilianp07/xcharge/core/model"
)

// Session is the mutable state of one dispatch view. It is owned by a
// Machine and only changed by its transition handlers and timer callbacks.
type Session struct {
	// ID identifies the current dispatch. It is assigned when payment is
	// confirmed and cleared when the flow returns to the map.
	ID              string
	Stage           Stage
	SelectedPod     *model.Pod
	LoadProgress    int
	SecondsLeft     int
	TrackingTotal   int
	BatteryLevel    int
	TriviaIndex     int
	ConfidenceScore int
	PaymentOpen     bool
	Filling         bool
	Arrived         bool
}

func (s *Session) clearSelection() {
	s.ID = ""
	s.SelectedPod = nil
	s.ConfidenceScore = 0
	s.PaymentOpen = false
	s.LoadProgress = 0
	s.SecondsLeft = 0
	s.TrackingTotal = 0
	s.Arrived = false
}

// Snapshot is a read-only copy of the session plus the static data needed
// to render the current stage.
type Snapshot struct {
	SessionID        string       `json:"session_id,omitempty"`
	Stage            Stage        `json:"stage"`
	SelectedPod      *model.Pod   `json:"selected_pod,omitempty"`
	ConfidenceScore  int          `json:"confidence_score"`
	LoadProgress     int          `json:"load_progress"`
	SecondsLeft      int          `json:"seconds_left"`
	Countdown        string       `json:"countdown"`
	TrackingProgress int          `json:"tracking_progress"`
	BatteryLevel     int          `json:"battery_level"`
	LowBattery       bool         `json:"low_battery"`
	TriviaIndex      int          `json:"trivia_index"`
	Trivia           model.Trivia `json:"trivia"`
	PaymentOpen      bool         `json:"payment_open"`
	Quote            Quote        `json:"quote"`
	Filling          bool         `json:"filling"`
	Arrived          bool         `json:"arrived"`
	Pods             []model.Pod  `json:"pods"`
}

// FormatCountdown renders seconds as m:ss.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// trackingProgress is the share of the countdown already elapsed, 0..100.
func trackingProgress(left, total int) int {
	if total <= 0 {
		return 0
	}
	p := 100 - float64(left)/float64(total)*100
	return int(math.Max(0, math.Min(100, math.Floor(p))))
}
