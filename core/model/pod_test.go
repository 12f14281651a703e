package model

import "testing"

func TestPodConfidence(t *testing.T) {
	cases := []struct {
		rel  float64
		want int
	}{
		{99.9, 99},
		{99.5, 99},
		{98.4, 98},
		{97.5, 98},
		{100, 99},
		{0, 0},
	}
	for _, c := range cases {
		p := Pod{Reliability: c.rel}
		if got := p.Confidence(); got != c.want {
			t.Fatalf("reliability %.1f: expected %d got %d", c.rel, c.want, got)
		}
	}
}

func TestPodValidate(t *testing.T) {
	ok := Pod{ID: 1, Name: "HARMONY", ETAMinutes: 3, Reliability: 99.9}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []Pod{
		{ID: 0, Name: "x", ETAMinutes: 1},
		{ID: 1, ETAMinutes: 1},
		{ID: 1, Name: "x"},
		{ID: 1, Name: "x", ETAMinutes: 1, Reliability: 101},
		{ID: 1, Name: "x", ETAMinutes: 1, Coordinates: &Coordinates{Lat: 91}},
	}
	for i, p := range bad {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestPodETAAndSummary(t *testing.T) {
	p := Pod{Power: "240kW", ETAMinutes: 5}
	if p.ETASeconds() != 300 {
		t.Fatalf("expected 300 got %d", p.ETASeconds())
	}
	if s := p.Summary(); s != "240kW • ETA 5 min" {
		t.Fatalf("unexpected summary %q", s)
	}
}
