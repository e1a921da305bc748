package alerts

import (
	"strings"
	"testing"

	"ManifoldPulse/internal/domain/models"
)

func hasType(alerts []*models.Alert, typ models.AlertType) *models.Alert {
	for _, a := range alerts {
		if a.Type == typ {
			return a
		}
	}
	return nil
}

func TestAnalyzeMetricsQuietSnapshot(t *testing.T) {
	m := &models.ManifoldMetrics{
		Prices:       []float64{100, 101, 100.5},
		Tension:      []float64{0, 0.1, 0.2},
		LocalEntropy: []float64{1, 1.5, 2},
		RicciFlow:    []float64{0, 0.05, -0.1},
	}
	if got := AnalyzeMetrics("BTCUSDT", m); len(got) != 0 {
		t.Fatalf("expected no alerts, got %d: %+v", len(got), got)
	}
}

func TestAnalyzeMetricsSingularity(t *testing.T) {
	m := &models.ManifoldMetrics{
		Prices:        []float64{100, 105, 90},
		Singularities: []int{1, 2},
		Timescale:     "1d",
	}
	got := AnalyzeMetrics("BTCUSDT", m)
	a := hasType(got, models.AlertSingularityDetected)
	if a == nil {
		t.Fatalf("singularity alert missing: %+v", got)
	}
	if a.Level != models.AlertCritical {
		t.Fatalf("level = %q, want critical", a.Level)
	}
	if a.Message != "Singularity detected! 2 extreme tension points found." {
		t.Fatalf("message = %q", a.Message)
	}
	if a.Data["count"] != 2 {
		t.Fatalf("count = %v", a.Data["count"])
	}
}

func TestAnalyzeMetricsTensionUsesMagnitude(t *testing.T) {
	m := &models.ManifoldMetrics{
		Prices:  []float64{100},
		Tension: []float64{0.3, -2.1},
	}
	got := AnalyzeMetrics("ETHUSDT", m)
	a := hasType(got, models.AlertHighTension)
	if a == nil {
		t.Fatal("tension alert missing")
	}
	if a.Level != models.AlertWarning {
		t.Fatalf("level = %q, want warning", a.Level)
	}
	// The raw signed value goes into the message.
	if !strings.Contains(a.Message, "-2.10") {
		t.Fatalf("message = %q", a.Message)
	}
}

func TestAnalyzeMetricsOnlyLastSampleCounts(t *testing.T) {
	// Old spikes that have since decayed must not fire.
	m := &models.ManifoldMetrics{
		Prices:       []float64{100},
		Tension:      []float64{3.0, 0.1},
		LocalEntropy: []float64{9.0, 2.0},
		RicciFlow:    []float64{1.0, 0.1},
	}
	if got := AnalyzeMetrics("BTCUSDT", m); len(got) != 0 {
		t.Fatalf("expected no alerts, got %+v", got)
	}
}

func TestAnalyzeMetricsEntropyAndRicci(t *testing.T) {
	m := &models.ManifoldMetrics{
		Prices:       []float64{100},
		LocalEntropy: []float64{7.5},
		RicciFlow:    []float64{-0.8},
	}
	got := AnalyzeMetrics("BTCUSDT", m)
	if a := hasType(got, models.AlertEntropySpike); a == nil || a.Level != models.AlertWarning {
		t.Fatalf("entropy alert wrong: %+v", a)
	}
	a := hasType(got, models.AlertRicciFlowInitiated)
	if a == nil || a.Level != models.AlertInfo {
		t.Fatalf("ricci alert wrong: %+v", a)
	}
	// Magnitude is reported unsigned.
	if !strings.Contains(a.Message, "0.80") {
		t.Fatalf("message = %q", a.Message)
	}
}

func TestAnalyzeMetricsAttractorProximity(t *testing.T) {
	near := &models.ManifoldMetrics{
		Prices:     []float64{100},
		Attractors: []models.Attractor{{Price: 100.5, Strength: 1}},
	}
	got := AnalyzeMetrics("BTCUSDT", near)
	a := hasType(got, models.AlertAttractorReached)
	if a == nil {
		t.Fatal("attractor alert missing")
	}
	if a.Message != "Price approaching attractor at $100.50" {
		t.Fatalf("message = %q", a.Message)
	}

	far := &models.ManifoldMetrics{
		Prices:     []float64{100},
		Attractors: []models.Attractor{{Price: 110, Strength: 1}},
	}
	if got := AnalyzeMetrics("BTCUSDT", far); hasType(got, models.AlertAttractorReached) != nil {
		t.Fatal("attractor alert fired beyond proximity threshold")
	}
}
