// Package factory keeps registries of constructors keyed by a type name.
// A ModuleConfig carries the type and a raw settings map, and Decode turns
// the settings into the constructor's own struct. The metrics sinks listed
// under metrics.sinks are built this way:
//
//	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
//	    var c struct{ URL string `json:"url"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewInfluxSinkWithFallback(c.URL, token, org, bucket), nil
//	})
//	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
package factory
