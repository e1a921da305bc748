package usecase

import "testing"

func TestCountRecentSingularities(t *testing.T) {
	// With 100 samples, only indices >= 80 are "recent".
	singularities := []int{10, 79, 80, 95, 99}
	if got := countRecentSingularities(singularities, 100); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if got := countRecentSingularities(nil, 100); got != 0 {
		t.Fatalf("got %d for empty list, want 0", got)
	}
	// Tiny series: threshold rounds down to 0, everything counts.
	if got := countRecentSingularities([]int{0}, 1); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestInterpretState(t *testing.T) {
	cases := []struct {
		entropy, tension float64
		want             string
	}{
		{6, 2, "high_tension"},
		{6, -2, "high_tension"},
		{1, 2, "compressed"},
		{6, 0.1, "chaotic"},
		{1, 0.1, "stable"},
		{1, -0.1, "stable"},
		{4, 0.1, "transitional"},
		{1, 1.0, "transitional"},
	}
	for _, c := range cases {
		if got := interpretState(c.entropy, c.tension); got != c.want {
			t.Fatalf("interpretState(%v, %v) = %q, want %q", c.entropy, c.tension, got, c.want)
		}
	}
}

func TestLevelOf(t *testing.T) {
	if got := levelOf(5.1, 5, 3); got != "high" {
		t.Fatalf("got %q, want high", got)
	}
	if got := levelOf(5, 5, 3); got != "medium" {
		t.Fatalf("got %q, want medium (thresholds are exclusive)", got)
	}
	if got := levelOf(3, 5, 3); got != "low" {
		t.Fatalf("got %q, want low", got)
	}
}

func TestLastVal(t *testing.T) {
	if got := lastVal(nil); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
	if got := lastVal([]float64{1, 2, 3}); got != 3 {
		t.Fatalf("got %v, want 3", got)
	}
}
