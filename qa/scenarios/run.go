package scenarios

import (
	"fmt"
	"time"

	"github.com/kilianp07/xcharge/core/catalog"
	"github.com/kilianp07/xcharge/core/dispatch"
	"github.com/kilianp07/xcharge/core/events"
	"github.com/kilianp07/xcharge/core/scheduler"
	"github.com/kilianp07/xcharge/internal/eventbus"
)

// Result is what a scenario run observed.
type Result struct {
	Stage       string
	Arrived     bool
	Battery     int
	Transitions []string
	Rejections  int
}

type collector struct{ res *Result }

func (c collector) Publish(ev eventbus.Event) {
	switch e := ev.(type) {
	case events.StageEvent:
		c.res.Transitions = append(c.res.Transitions, e.From+">"+e.To)
	case events.RejectedEvent:
		c.res.Rejections++
	}
}

// Run plays sc against the embedded catalog on a virtual clock.
func Run(sc *Scenario) (Result, error) {
	var res Result
	clock := scheduler.NewManual(time.Unix(0, 0).UTC())
	m, err := dispatch.NewMachine(sc.Dispatch, catalog.Default(), clock,
		dispatch.WithClock(clock.Now), dispatch.WithPublisher(collector{res: &res}))
	if err != nil {
		return res, err
	}
	defer m.Close()

	for i, st := range sc.Steps {
		if err := play(m, clock, st); err != nil {
			return res, fmt.Errorf("step %d: %w", i, err)
		}
		if st.Stage != "" && m.Stage().String() != st.Stage {
			return res, fmt.Errorf("step %d: stage %s, want %s", i, m.Stage(), st.Stage)
		}
	}
	s := m.Session()
	res.Stage = s.Stage.String()
	res.Arrived = s.Arrived
	res.Battery = s.BatteryLevel
	return res, nil
}

func play(m *dispatch.Machine, clock *scheduler.Manual, st Step) error {
	switch {
	case st.UntilArrival:
		for !m.Session().Arrived {
			if !clock.Step() {
				return fmt.Errorf("clock idle before arrival in stage %s", m.Stage())
			}
		}
		return nil
	case st.Advance != "":
		d, err := st.Duration()
		if err != nil {
			return err
		}
		clock.Advance(d)
		return nil
	}
	a, err := st.ToAction()
	if err != nil {
		return err
	}
	herr := m.Handle(a)
	switch {
	case st.Reject == "" && herr != nil:
		return fmt.Errorf("%s: %w", a, herr)
	case st.Reject != "" && herr == nil:
		return fmt.Errorf("%s accepted, want %s rejection", a, st.Reject)
	case st.Reject != "" && dispatch.Reason(herr) != st.Reject:
		return fmt.Errorf("%s rejected as %s, want %s", a, dispatch.Reason(herr), st.Reject)
	}
	return nil
}
