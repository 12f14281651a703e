package metrics

// MultiSink fans out session events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTransition forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordTransition(ev TransitionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordTransition(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCounters forwards counter samples to sinks that support them.
func (m *MultiSink) RecordCounters(sample CounterSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CounterRecorder); ok {
			if err := rec.RecordCounters(sample); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRejection forwards rejection events.
func (m *MultiSink) RecordRejection(ev RejectionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RejectionRecorder); ok {
			if err := rec.RecordRejection(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordArrival forwards arrival events.
func (m *MultiSink) RecordArrival(ev ArrivalEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ArrivalRecorder); ok {
			if err := rec.RecordArrival(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases every sink holding resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
