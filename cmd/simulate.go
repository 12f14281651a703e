package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/xcharge/config"
	"github.com/kilianp07/xcharge/core/catalog"
	"github.com/kilianp07/xcharge/core/dispatch"
	"github.com/kilianp07/xcharge/core/events"
	"github.com/kilianp07/xcharge/core/journal"
	coremetrics "github.com/kilianp07/xcharge/core/metrics"
	"github.com/kilianp07/xcharge/core/scheduler"
	"github.com/kilianp07/xcharge/infra/logger"
	"github.com/kilianp07/xcharge/internal/eventbus"
)

var (
	simPod      int
	simVerbose  bool
	simMaxSteps int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one dispatch end to end on a virtual clock",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simPod, "pod", 1, "pod id to dispatch")
	simulateCmd.Flags().BoolVarP(&simVerbose, "verbose", "v", false, "also print counter ticks")
	simulateCmd.Flags().IntVar(&simMaxSteps, "max-steps", 100000, "abort after this many timer firings")
	rootCmd.AddCommand(simulateCmd)
}

// printer writes machine events as they happen, stamped with the virtual
// time elapsed since the start of the run.
type printer struct {
	w       io.Writer
	start   time.Time
	verbose bool
	next    func(eventbus.Event)
}

func (p *printer) Publish(ev eventbus.Event) {
	switch e := ev.(type) {
	case events.StageEvent:
		fmt.Fprintf(p.w, "%8s  %s -> %s (%s)\n", p.elapsed(e.Time), e.From, e.To, e.Reason)
	case events.OverlayEvent:
		fmt.Fprintf(p.w, "%8s  payment overlay open=%t\n", p.elapsed(e.Time), e.Open)
	case events.ArrivalEvent:
		fmt.Fprintf(p.w, "%8s  pod %d arrived (session %s)\n", p.elapsed(e.Time), e.PodID, e.SessionID)
	case events.RejectedEvent:
		fmt.Fprintf(p.w, "%8s  rejected %s: %s\n", p.elapsed(e.Time), e.Action, e.Reason)
	case events.CounterEvent:
		if p.verbose {
			fmt.Fprintf(p.w, "%8s  %s=%d\n", p.elapsed(e.Time), e.Counter, e.Value)
		}
	}
	if p.next != nil {
		p.next(ev)
	}
}

func (p *printer) elapsed(t time.Time) string {
	return fmt.Sprintf("t+%.1fs", t.Sub(p.start).Seconds())
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, cleanup, err := setup("simulate", false)
	if err != nil {
		return err
	}
	defer cleanup()
	return simulate(cmd.OutOrStdout(), cfg, simPod, simVerbose, simMaxSteps)
}

func simulate(out io.Writer, cfg *config.Config, podID int, verbose bool, maxSteps int) error {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return err
	}
	start := time.Now().UTC().Truncate(time.Second)
	clock := scheduler.NewManual(start)
	pr := &printer{w: out, start: start, verbose: verbose}
	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal)
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		defer closeQuietly(store)
		pr.next = journal.NewRecorder(store, cfg.Journal, logger.New("journal")).Handle
	}
	m, err := dispatch.NewMachine(cfg.Dispatch, cat, clock,
		dispatch.WithClock(clock.Now),
		dispatch.WithLogger(logger.New("dispatch")),
		dispatch.WithMetrics(sink),
		dispatch.WithPublisher(pr),
	)
	if err != nil {
		return err
	}
	defer m.Close()

	do := func(a dispatch.Action) error {
		if err := m.Handle(a); err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
		return nil
	}
	if err := do(dispatch.Confirm()); err != nil {
		return err
	}
	clock.Advance(m.Config().WelcomeDelay())
	steps := []dispatch.Action{dispatch.SelectPod(podID), dispatch.Confirm()}
	if !m.Config().SkipPayment {
		steps = append(steps, dispatch.Pay())
	}
	for _, a := range steps {
		if err := do(a); err != nil {
			return err
		}
	}
	for n := 0; !m.Session().Arrived; n++ {
		if n >= maxSteps || !clock.Step() {
			return fmt.Errorf("no arrival after %d timer firings (stage %s)", n, m.Stage())
		}
	}
	return nil
}
