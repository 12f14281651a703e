package dispatch

import (
	"fmt"
	"time"
)

// Preset names select the load-progress cadence.
const (
	PresetClassic = "classic" // +1 every 100ms
	PresetRapid   = "rapid"   // +5 every 40ms
	PresetSwift   = "swift"   // +4 every 50ms
)

type loadPreset struct {
	step       int
	intervalMS int
}

var presets = map[string]loadPreset{
	PresetClassic: {step: 1, intervalMS: 100},
	PresetRapid:   {step: 5, intervalMS: 40},
	PresetSwift:   {step: 4, intervalMS: 50},
}

// Config defines the timings and starting values of a dispatch session.
type Config struct {
	// Preset fills LoadStep and LoadIntervalMS when they are left at zero.
	Preset string `json:"preset" yaml:"preset"`

	// WelcomeDelayMS is the fill animation played before the map appears.
	// Zero selects the default; a negative value disables the delay.
	WelcomeDelayMS int `json:"welcome_delay_ms" yaml:"welcome_delay_ms"`

	BatteryStart int `json:"battery_start" yaml:"battery_start"`

	// BatteryFloor stops the drain. Zero selects the default of 3; a negative
	// value drains down to 0.
	BatteryFloor int `json:"battery_floor" yaml:"battery_floor"`

	LowBattery        int `json:"low_battery" yaml:"low_battery"`
	BatteryDrainMS    int `json:"battery_drain_ms" yaml:"battery_drain_ms"`
	LoadStep          int `json:"load_step" yaml:"load_step"`
	LoadIntervalMS    int `json:"load_interval_ms" yaml:"load_interval_ms"`
	TriviaIntervalMS  int `json:"trivia_interval_ms" yaml:"trivia_interval_ms"`
	CountdownMS       int `json:"countdown_ms" yaml:"countdown_ms"`
	CompletionDelayMS int `json:"completion_delay_ms" yaml:"completion_delay_ms"`
	DefaultETASeconds int `json:"default_eta_seconds" yaml:"default_eta_seconds"`

	// SkipPayment sends confirm on the details panel straight to dispatch.
	SkipPayment bool `json:"skip_payment" yaml:"skip_payment"`

	EnergyEstimatePaise int64 `json:"energy_estimate_paise" yaml:"energy_estimate_paise"`
	ServiceFeePaise     int64 `json:"service_fee_paise" yaml:"service_fee_paise"`
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills every zero field with its default. It is idempotent.
func (c *Config) SetDefaults() {
	if c.Preset == "" {
		c.Preset = PresetClassic
	}
	if p, ok := presets[c.Preset]; ok {
		if c.LoadStep == 0 {
			c.LoadStep = p.step
		}
		if c.LoadIntervalMS == 0 {
			c.LoadIntervalMS = p.intervalMS
		}
	}
	if c.WelcomeDelayMS == 0 {
		c.WelcomeDelayMS = 1600
	}
	if c.BatteryStart == 0 {
		c.BatteryStart = 7
	}
	if c.BatteryFloor == 0 {
		c.BatteryFloor = 3
	}
	if c.LowBattery == 0 {
		c.LowBattery = 5
	}
	if c.BatteryDrainMS == 0 {
		c.BatteryDrainMS = 8000
	}
	if c.TriviaIntervalMS == 0 {
		c.TriviaIntervalMS = 2500
	}
	if c.CountdownMS == 0 {
		c.CountdownMS = 1000
	}
	if c.DefaultETASeconds == 0 {
		c.DefaultETASeconds = 300
	}
	if c.EnergyEstimatePaise == 0 {
		c.EnergyEstimatePaise = 125000
	}
	if c.ServiceFeePaise == 0 {
		c.ServiceFeePaise = 15000
	}
}

// Validate checks the configuration for values the state machine cannot run with.
func (c Config) Validate() error {
	if _, ok := presets[c.Preset]; !ok {
		return fmt.Errorf("unknown preset %q", c.Preset)
	}
	if c.LoadStep < 1 || c.LoadStep > 100 {
		return fmt.Errorf("load_step must be within 1..100, got %d", c.LoadStep)
	}
	for name, v := range map[string]int{
		"load_interval_ms":   c.LoadIntervalMS,
		"battery_drain_ms":   c.BatteryDrainMS,
		"trivia_interval_ms": c.TriviaIntervalMS,
		"countdown_ms":       c.CountdownMS,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.CompletionDelayMS < 0 {
		return fmt.Errorf("completion_delay_ms must not be negative")
	}
	if c.BatteryStart > 100 || c.BatteryStart < c.Floor() {
		return fmt.Errorf("battery range invalid: start %d floor %d", c.BatteryStart, c.BatteryFloor)
	}
	if c.DefaultETASeconds <= 0 {
		return fmt.Errorf("default_eta_seconds must be positive")
	}
	if c.EnergyEstimatePaise < 0 || c.ServiceFeePaise < 0 {
		return fmt.Errorf("payment amounts must not be negative")
	}
	return nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// WelcomeDelay returns the pause before the map is shown.
func (c Config) WelcomeDelay() time.Duration {
	if c.WelcomeDelayMS < 0 {
		return 0
	}
	return ms(c.WelcomeDelayMS)
}

// Floor is the battery level at which the drain stops.
func (c Config) Floor() int {
	if c.BatteryFloor < 0 {
		return 0
	}
	return c.BatteryFloor
}

func (c Config) BatteryDrain() time.Duration    { return ms(c.BatteryDrainMS) }
func (c Config) LoadInterval() time.Duration    { return ms(c.LoadIntervalMS) }
func (c Config) TriviaInterval() time.Duration  { return ms(c.TriviaIntervalMS) }
func (c Config) CountdownTick() time.Duration   { return ms(c.CountdownMS) }
func (c Config) CompletionDelay() time.Duration { return ms(c.CompletionDelayMS) }

// LoadDuration estimates how long the loading stage lasts.
func (c Config) LoadDuration() time.Duration {
	if c.LoadStep <= 0 {
		return 0
	}
	ticks := (100 + c.LoadStep - 1) / c.LoadStep
	return time.Duration(ticks)*c.LoadInterval() + c.CompletionDelay()
}

// Quote returns the payment overlay amounts.
func (c Config) Quote() Quote {
	return Quote{EnergyEstimate: c.EnergyEstimatePaise, ServiceFee: c.ServiceFeePaise}
}
