package manifold

import (
	"math"
	"testing"
)

func TestFindPeaksHeightAndDistance(t *testing.T) {
	xs := []float64{0, 5, 0, 4, 0, 0, 0, 0, 0, 0, 0, 0, 6, 0}
	got := findPeaks(xs, peakOptions{height: 3, hasHeight: true, minDistance: 10})
	// Peaks at 1 (5), 3 (4), 12 (6). Tallest-first distance pruning
	// keeps 12, then 1 (distance 11), and drops 3 (too close to 1).
	if len(got) != 2 || got[0] != 1 || got[1] != 12 {
		t.Fatalf("got %v, want [1 12]", got)
	}
}

func TestFindPeaksPlateauMidpoint(t *testing.T) {
	xs := []float64{0, 1, 3, 3, 3, 1, 0}
	got := findPeaks(xs, peakOptions{})
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("got %v, want plateau midpoint [3]", got)
	}
}

func TestProminence(t *testing.T) {
	//        base      peak  saddle  higher
	xs := []float64{0, 2, 5, 2, 1, 3, 8, 0}
	// Peak at 2 (value 5): left walk stops at the start (min 0), right
	// walk stops at the higher value 8 (min along the way 1).
	if p := prominence(xs, 2); math.Abs(p-4) > 1e-12 {
		t.Fatalf("prominence = %v, want 4", p)
	}
}

func TestGaussianSmoothPreservesConstant(t *testing.T) {
	xs := []float64{7, 7, 7, 7, 7, 7}
	got := gaussianSmooth(xs, 2)
	for i, v := range got {
		if math.Abs(v-7) > 1e-12 {
			t.Fatalf("smooth[%d] = %v, want 7", i, v)
		}
	}
}

func TestGradientLinear(t *testing.T) {
	xs := []float64{1, 3, 5, 7}
	got := gradient(xs)
	for i, v := range got {
		if math.Abs(v-2) > 1e-12 {
			t.Fatalf("gradient[%d] = %v, want 2", i, v)
		}
	}
}
