package models

import (
	"encoding/json"
	"testing"
)

func TestMetricsPayloadRoundTrip(t *testing.T) {
	m := &ManifoldMetrics{
		Timestamps:    []float64{0, 1, 2},
		Prices:        []float64{100, 101, 102},
		Curvature:     []float64{0, 0.1, -0.1},
		Entropy:       3.7219280948873623,
		LocalEntropy:  []float64{0, 0, 1.5},
		Singularities: []int{1},
		Attractors:    []Attractor{{Price: 101, Strength: 1}},
		RicciFlow:     []float64{0, 0.01, 0.02},
		Tension:       []float64{-1, 0, 1},
		Timescale:     "daily",
	}

	b, err := json.Marshal(m.ToPayload("BTCUSDT"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var p MetricsPayload
	if err := json.Unmarshal(b, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := p.Metrics()

	if got.Entropy != m.Entropy {
		t.Fatalf("entropy = %v, want %v exactly", got.Entropy, m.Entropy)
	}
	if got.Timescale != m.Timescale {
		t.Fatalf("timescale = %q, want %q", got.Timescale, m.Timescale)
	}
	if len(got.Prices) != len(m.Prices) || len(got.Attractors) != len(m.Attractors) {
		t.Fatalf("array lengths changed in round trip")
	}
	if got.Attractors[0] != m.Attractors[0] {
		t.Fatalf("attractor = %+v, want %+v", got.Attractors[0], m.Attractors[0])
	}
}

func TestNearestAttractor(t *testing.T) {
	m := &ManifoldMetrics{
		Prices:     []float64{100, 110},
		Attractors: []Attractor{{Price: 90, Strength: 0.5}, {Price: 112, Strength: 1}},
	}
	a, ok := m.NearestAttractor(m.LastPrice())
	if !ok {
		t.Fatalf("expected attractor")
	}
	if a.Price != 112 {
		t.Fatalf("nearest = %v, want 112", a.Price)
	}

	var empty ManifoldMetrics
	if _, ok := empty.NearestAttractor(100); ok {
		t.Fatalf("expected no attractor for empty list")
	}
}
