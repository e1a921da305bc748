package manifold

import (
	"testing"

	domrepo "ManifoldPulse/internal/domain/repository"
)

func TestAnalyzeMultiscaleAllScales(t *testing.T) {
	a := NewMultiScaleAnalyzer(newTestEngine(t))
	prices := linearSeries(200, 100, 160)
	for i := range prices {
		if i%5 == 0 {
			prices[i] *= 0.995
		}
	}
	results, errs := a.AnalyzeMultiscale(prices, nil, nil)
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != 4 {
		t.Fatalf("got %d scales, want 4", len(results))
	}
	if n := len(results[domrepo.ScaleMonthly].Prices); n != 10 {
		t.Fatalf("monthly decimation kept %d samples, want 10", n)
	}
	if n := len(results[domrepo.ScaleWeekly].Prices); n != 40 {
		t.Fatalf("weekly decimation kept %d samples, want 40", n)
	}
	if n := len(results[domrepo.ScaleDaily].Prices); n != 200 {
		t.Fatalf("daily must not decimate, got %d", n)
	}
}

func TestAnalyzeMultiscaleIsolatesFailures(t *testing.T) {
	a := NewMultiScaleAnalyzer(newTestEngine(t))
	// 15 samples: monthly decimation keeps a single point and fails the
	// minimum-length invariant; the daily scale must still succeed.
	prices := linearSeries(15, 100, 120)
	results, errs := a.AnalyzeMultiscale(prices, nil, []domrepo.Timescale{domrepo.ScaleMonthly, domrepo.ScaleDaily})
	if errs == nil || errs[domrepo.ScaleMonthly] == nil {
		t.Fatalf("expected monthly scale to fail, got errs %v", errs)
	}
	if !IsInsufficientData(errs[domrepo.ScaleMonthly]) {
		t.Fatalf("monthly error = %v, want InsufficientDataError", errs[domrepo.ScaleMonthly])
	}
	if results[domrepo.ScaleDaily] == nil {
		t.Fatalf("daily scale must not be aborted by the monthly failure")
	}
}
