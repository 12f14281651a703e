package metrics

import "testing"

type recordSink struct {
	count int
}

func (r *recordSink) RecordTransition(TransitionEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordRejection(RejectionEvent) error {
	r.count++
	return nil
}

// transitionOnly does not implement the optional recorders.
type transitionOnly struct{ count int }

func (r *transitionOnly) RecordTransition(TransitionEvent) error {
	r.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	s3 := &transitionOnly{}
	m := NewMultiSink(s1, s2, s3)
	if err := m.RecordTransition(TransitionEvent{From: "map", To: "details"}); err != nil {
		t.Fatalf("record transition: %v", err)
	}
	if err := m.RecordRejection(RejectionEvent{Action: "pay"}); err != nil {
		t.Fatalf("record rejection: %v", err)
	}
	if err := m.RecordCounters(CounterSample{}); err != nil {
		t.Fatalf("record counters: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded")
	}
	if s3.count != 1 {
		t.Fatalf("expected only transitions on s3, got %d", s3.count)
	}
}
