package manifold

import (
	"errors"
	"math"
	"testing"

	domrepo "ManifoldPulse/internal/domain/repository"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultSensitivity)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func constantSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func linearSeries(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func TestNewEngineRejectsBadSensitivity(t *testing.T) {
	for _, s := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewEngine(s); err == nil {
			t.Fatalf("expected error for sensitivity %v", s)
		} else if !IsInvalidConfiguration(err) {
			t.Fatalf("expected InvalidConfigurationError, got %v", err)
		}
	}
}

func TestCurvatureConstantSeriesIsZero(t *testing.T) {
	e := newTestEngine(t)
	curv, err := e.CalculateCurvature(constantSeries(64, 100), DefaultSmoothWindow)
	if err != nil {
		t.Fatalf("curvature: %v", err)
	}
	if len(curv) != 64 {
		t.Fatalf("length = %d, want 64", len(curv))
	}
	for i, c := range curv {
		if math.Abs(c) > 1e-9 {
			t.Fatalf("curvature[%d] = %v, want ~0", i, c)
		}
	}
}

func TestGlobalEntropyConstantSeriesFinite(t *testing.T) {
	e := newTestEngine(t)
	ent, err := e.CalculateGlobalEntropy(constantSeries(64, 42), DefaultEntropyBins)
	if err != nil {
		t.Fatalf("entropy: %v", err)
	}
	if math.IsNaN(ent) || math.IsInf(ent, 0) {
		t.Fatalf("entropy = %v, want finite", ent)
	}
}

func TestCurvatureInsufficientData(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.CalculateCurvature([]float64{100}, DefaultSmoothWindow); !IsInsufficientData(err) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestLocalEntropyShortSeriesDegrades(t *testing.T) {
	e := newTestEngine(t)
	out := e.CalculateLocalEntropy(linearSeries(10, 100, 110), DefaultEntropyWindow)
	if len(out) != 10 {
		t.Fatalf("length = %d, want 10", len(out))
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 for series shorter than window", i, v)
		}
	}
}

func TestLocalEntropyBackfill(t *testing.T) {
	e := newTestEngine(t)
	prices := linearSeries(60, 100, 150)
	for i := 0; i < len(prices); i += 7 {
		prices[i] *= 1.02 // break the monotone pattern a little
	}
	out := e.CalculateLocalEntropy(prices, DefaultEntropyWindow)
	if len(out) != len(prices) {
		t.Fatalf("length = %d, want %d", len(out), len(prices))
	}
	for i := 0; i < DefaultEntropyWindow; i++ {
		if out[i] != out[DefaultEntropyWindow] {
			t.Fatalf("out[%d] = %v, want backfilled %v", i, out[i], out[DefaultEntropyWindow])
		}
	}
}

func TestTensionLengthAndMismatch(t *testing.T) {
	e := newTestEngine(t)
	prices := linearSeries(50, 100, 120)
	tension, err := e.CalculateTension(prices, nil)
	if err != nil {
		t.Fatalf("tension: %v", err)
	}
	if len(tension) != len(prices) {
		t.Fatalf("length = %d, want %d", len(tension), len(prices))
	}
	if _, err := e.CalculateTension(prices, []float64{1, 2, 3}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestDetectSingularitiesMinSeparation(t *testing.T) {
	e := newTestEngine(t)
	n := 80
	curvature := make([]float64, n)
	tension := make([]float64, n)
	for i := range curvature {
		curvature[i] = 0.01
		tension[i] = 0.01
	}
	for _, i := range []int{10, 15, 40, 47, 70} {
		curvature[i] = 5
		tension[i] = 5
	}
	got := e.DetectSingularities(curvature, tension, DefaultSingThreshold)
	if len(got) == 0 {
		t.Fatalf("expected singularities for spiked input")
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("indices not ascending: %v", got)
		}
		if got[i]-got[i-1] < minSingularityGap {
			t.Fatalf("indices %d and %d closer than %d", got[i-1], got[i], minSingularityGap)
		}
	}
}

func TestFindAttractorsFallbackNeverEmpty(t *testing.T) {
	e := newTestEngine(t)

	uniform := constantSeries(100, 250)
	got := e.FindAttractors(uniform, nil, DefaultNumAttractors)
	if len(got) == 0 {
		t.Fatalf("attractors empty for uniform prices")
	}

	two := []float64{100, 101}
	got = e.FindAttractors(two, nil, DefaultNumAttractors)
	if len(got) == 0 {
		t.Fatalf("attractors empty for two-point series")
	}
	for _, a := range got {
		if a.Strength < 0 || a.Strength > 1 {
			t.Fatalf("strength %v out of [0,1]", a.Strength)
		}
	}
}

func TestFindAttractorsVolumeWeighted(t *testing.T) {
	e := newTestEngine(t)
	n := 200
	prices := make([]float64, n)
	volume := make([]float64, n)
	for i := range prices {
		prices[i] = 100 + float64(i%10) // revisits the same ten levels
		volume[i] = 1
		if prices[i] == 105 {
			volume[i] = 50 // concentrate volume on one level
		}
	}
	got := e.FindAttractors(prices, volume, DefaultNumAttractors)
	if len(got) == 0 {
		t.Fatalf("no attractors")
	}
	if got[0].Strength != 1 {
		t.Fatalf("strongest attractor strength = %v, want 1", got[0].Strength)
	}
	if math.Abs(got[0].Price-105) > 1 {
		t.Fatalf("strongest attractor at %v, want near the volume-heavy level 105", got[0].Price)
	}
}

func TestAnalyzeArrayLengths(t *testing.T) {
	e := newTestEngine(t)
	prices := linearSeries(120, 100, 180)
	for i := range prices {
		if i%3 == 0 {
			prices[i] *= 1.01
		}
	}
	m, err := e.Analyze(prices, nil, domrepo.ScaleDaily, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	n := len(prices)
	if len(m.Curvature) != n || len(m.Tension) != n || len(m.LocalEntropy) != n || len(m.RicciFlow) != n {
		t.Fatalf("array lengths %d/%d/%d/%d, want all %d",
			len(m.Curvature), len(m.Tension), len(m.LocalEntropy), len(m.RicciFlow), n)
	}
	if len(m.Timestamps) != n || len(m.Prices) != n {
		t.Fatalf("timestamps/prices lengths %d/%d, want %d", len(m.Timestamps), len(m.Prices), n)
	}
	if len(m.Attractors) == 0 {
		t.Fatalf("attractors must never be empty")
	}
	if m.Timescale != string(domrepo.ScaleDaily) {
		t.Fatalf("timescale = %q", m.Timescale)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Analyze([]float64{100}, nil, domrepo.ScaleDaily, nil); !IsInsufficientData(err) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	prices := linearSeries(20, 100, 101)
	if _, err := e.Analyze(prices, nil, domrepo.Timescale("hourly"), nil); !IsInvalidConfiguration(err) {
		t.Fatalf("expected InvalidConfigurationError for bad timescale, got %v", err)
	}
	if _, err := e.Analyze(prices, []float64{1, 2}, domrepo.ScaleDaily, nil); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch for timestamps, got %v", err)
	}
	if _, err := e.Analyze(prices, nil, domrepo.ScaleDaily, []float64{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch for volume, got %v", err)
	}
}

func TestAnalyzeNoNaNOrInf(t *testing.T) {
	e := newTestEngine(t)
	cases := [][]float64{
		constantSeries(50, 100),
		linearSeries(100, 100, 200),
		{100, 100.5, 99.8, 101, 100.2, 103, 102.5, 104, 101.7, 105, 104.2, 106},
	}
	for ci, prices := range cases {
		m, err := e.Analyze(prices, nil, domrepo.ScaleIntraday, nil)
		if err != nil {
			t.Fatalf("case %d: analyze: %v", ci, err)
		}
		check := func(name string, xs []float64) {
			for i, v := range xs {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("case %d: %s[%d] = %v", ci, name, i, v)
				}
			}
		}
		check("curvature", m.Curvature)
		check("tension", m.Tension)
		check("local_entropy", m.LocalEntropy)
		check("ricci_flow", m.RicciFlow)
		if math.IsNaN(m.Entropy) || math.IsInf(m.Entropy, 0) {
			t.Fatalf("case %d: entropy = %v", ci, m.Entropy)
		}
	}
}

func TestLinearTrendHasFlatCurvature(t *testing.T) {
	e := newTestEngine(t)
	prices := linearSeries(100, 100, 200)
	m, err := e.Analyze(prices, nil, domrepo.ScaleDaily, constantSeries(100, 1000))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for i, c := range m.Curvature {
		if math.Abs(c) > 1e-9 {
			t.Fatalf("curvature[%d] = %v, want ~0 for a linear trend", i, c)
		}
	}
}
