package model

import (
	"fmt"
	"math"
)

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Pod represents a charging unit that can be dispatched to the driver.
type Pod struct {
	ID          int          `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Power       string       `json:"power" yaml:"power"` // display rating, e.g. "240kW"
	ETAMinutes  int          `json:"eta" yaml:"eta"`     // minutes until arrival once dispatched
	Distance    string       `json:"dist" yaml:"dist"`   // display distance, e.g. "0.6km"
	Coordinates *Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Reliability float64      `json:"reliability" yaml:"reliability"` // percentage, e.g. 99.9
	Intel       string       `json:"intel" yaml:"intel"`
}

// Validate checks that the pod record is usable by the dispatch flow.
func (p Pod) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("pod id must be positive")
	}
	if p.Name == "" {
		return fmt.Errorf("pod %d: name is required", p.ID)
	}
	if p.ETAMinutes <= 0 {
		return fmt.Errorf("pod %d: eta must be positive", p.ID)
	}
	if p.Reliability < 0 || p.Reliability > 100 {
		return fmt.Errorf("pod %d: reliability %.2f out of range", p.ID, p.Reliability)
	}
	if c := p.Coordinates; c != nil {
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return fmt.Errorf("pod %d: coordinates out of range", p.ID)
		}
	}
	return nil
}

// ETASeconds returns the arrival countdown length.
func (p Pod) ETASeconds() int { return p.ETAMinutes * 60 }

// Confidence derives the dispatch confidence score shown on the details panel.
// Reliability is rounded to the nearest integer and capped at 99.
func (p Pod) Confidence() int {
	score := int(math.Round(p.Reliability))
	if score > 99 {
		score = 99
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Summary is the one-line description used in fleet listings.
func (p Pod) Summary() string {
	return fmt.Sprintf("%s • ETA %d min", p.Power, p.ETAMinutes)
}
