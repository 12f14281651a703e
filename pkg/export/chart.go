package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/xcharge/core/events"
	"github.com/kilianp07/xcharge/core/journal"
)

// chartCounters are the counters plotted by WriteChart, in legend order.
var chartCounters = []string{events.CounterBattery, events.CounterLoad, events.CounterCountdown}

// WriteChart renders the counter records as an HTML line chart with one
// series per counter. A series repeats its last value until it changes and
// is blank before its first sample.
func WriteChart(w io.Writer, recs []journal.Record) error {
	var xAxis []string
	last := map[string]*int{}
	series := map[string][]opts.LineData{}
	for _, r := range recs {
		if r.Type != events.TypeCounter {
			continue
		}
		ev, err := r.Event()
		if err != nil {
			return fmt.Errorf("decode counter record: %w", err)
		}
		c, ok := ev.(events.CounterEvent)
		if !ok {
			continue
		}
		v := c.Value
		last[c.Counter] = &v
		xAxis = append(xAxis, r.Time.Format("15:04:05.000"))
		for _, name := range chartCounters {
			point := opts.LineData{Value: "-"}
			if p := last[name]; p != nil {
				point = opts.LineData{Value: *p}
			}
			series[name] = append(series[name], point)
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Dispatch counters"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Value"}),
	)
	line.SetXAxis(xAxis)
	for _, name := range chartCounters {
		line.AddSeries(name, series[name])
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
