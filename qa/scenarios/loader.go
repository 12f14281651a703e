package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/xcharge/core/dispatch"
)

// Step is one scripted input. Exactly one of Action or Advance is set.
type Step struct {
	Action string `yaml:"action,omitempty"`
	Pod    int    `yaml:"pod,omitempty"`
	// Advance moves the virtual clock, e.g. "1.6s" or "3m".
	Advance string `yaml:"advance,omitempty"`
	// UntilArrival steps the clock until the countdown reaches zero.
	UntilArrival bool `yaml:"until_arrival,omitempty"`
	// Reject expects the action to be refused with this reason label.
	Reject string `yaml:"reject,omitempty"`
	// Stage is checked after the step when set.
	Stage string `yaml:"stage,omitempty"`
}

// ToAction converts the step into a machine action.
func (s Step) ToAction() (dispatch.Action, error) {
	kind, err := dispatch.ParseActionKind(s.Action)
	if err != nil {
		return dispatch.Action{}, err
	}
	return dispatch.Action{Kind: kind, PodID: s.Pod}, nil
}

// Duration parses Advance.
func (s Step) Duration() (time.Duration, error) {
	return time.ParseDuration(s.Advance)
}

type Expected struct {
	Stage       string   `yaml:"stage"`
	Arrived     bool     `yaml:"arrived"`
	Transitions []string `yaml:"transitions,omitempty"`
	Rejections  int      `yaml:"rejections"`
	Battery     *int     `yaml:"battery,omitempty"`
}

type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Dispatch    dispatch.Config `yaml:"dispatch"`
	Steps       []Step          `yaml:"steps"`
	Expected    Expected        `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	for i, st := range sc.Steps {
		if (st.Action == "") == (st.Advance == "" && !st.UntilArrival) {
			return nil, fmt.Errorf("%s: step %d needs exactly one of action, advance or until_arrival", path, i)
		}
	}
	return &sc, nil
}
