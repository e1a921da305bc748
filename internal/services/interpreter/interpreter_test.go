package interpreter

import (
	"math"
	"testing"

	"ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
	"ManifoldPulse/internal/services/manifold"
)

func repeat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// snapshot builds a metrics snapshot whose latest values are exactly
// the given scalars, with flat history behind them.
func snapshot(curvature, tension, entropy, flow float64) *models.ManifoldMetrics {
	n := 30
	m := &models.ManifoldMetrics{
		Timestamps:   repeat(n, 0),
		Prices:       repeat(n, 100),
		Curvature:    repeat(n, curvature),
		LocalEntropy: repeat(n, entropy),
		Tension:      repeat(n, tension),
		RicciFlow:    repeat(n, flow),
		Attractors:   []models.Attractor{{Price: 100, Strength: 1}},
		Timescale:    string(domrepo.ScaleDaily),
	}
	m.Entropy = entropy
	return m
}

func TestPhasePrecedenceSingularityDominates(t *testing.T) {
	in := New()
	// High entropy would satisfy nothing below rule 1; low entropy
	// would satisfy rule 5's entropy arm. Rule 1 must win either way.
	for _, entropy := range []float64{0.5, 9.0} {
		got := in.Interpret(snapshot(2.5, 2.0, entropy, 0))
		if got.Phase != models.PhaseSingularityForming {
			t.Fatalf("entropy %v: phase = %s, want singularity_forming", entropy, got.Phase)
		}
		if got.Warning == "" {
			t.Fatalf("singularity phase must carry a warning")
		}
	}
}

func TestPhaseCascadeOrder(t *testing.T) {
	in := New()
	cases := []struct {
		name                            string
		curvature, tension, entropy, fl float64
		want                            models.Phase
	}{
		{"ricci smoothing", 0.1, 0.8, 5, 0.9, models.PhaseRicciFlowSmoothing},
		{"impulse", 0.8, 0.9, 5, 0.1, models.PhaseImpulseLegSharpening},
		{"compression", 0.2, 1.2, 5, 0.1, models.PhaseCompressionBuilding},
		{"equilibrium", 0.1, 0.2, 2, 0.1, models.PhaseStableEquilibrium},
		{"default", 0.4, 0.6, 5, 0.1, models.PhaseAttractorConvergence},
	}
	for _, tc := range cases {
		got := in.Interpret(snapshot(tc.curvature, tc.tension, tc.entropy, tc.fl))
		if got.Phase != tc.want {
			t.Fatalf("%s: phase = %s, want %s", tc.name, got.Phase, tc.want)
		}
	}
}

func TestConfidenceBoundsAndMonotonicity(t *testing.T) {
	in := New()

	flat := snapshot(0.1, 0.1, 3, 0)
	conf := in.Interpret(flat).Confidence
	if conf <= 0 || conf > 1 {
		t.Fatalf("confidence = %v, want in (0,1]", conf)
	}

	// Increasing the trailing curvature spread must strictly lower
	// confidence while the tension window stays fixed.
	prev := math.Inf(1)
	for _, amplitude := range []float64{0, 0.5, 2, 8} {
		m := snapshot(0.1, 0.1, 3, 0)
		for i := range m.Curvature {
			if i%2 == 0 {
				m.Curvature[i] = amplitude
			} else {
				m.Curvature[i] = -amplitude
			}
		}
		c := in.Interpret(m).Confidence
		if c <= 0 || c > 1 {
			t.Fatalf("amplitude %v: confidence = %v, want in (0,1]", amplitude, c)
		}
		if c >= prev {
			t.Fatalf("amplitude %v: confidence %v did not decrease from %v", amplitude, c, prev)
		}
		prev = c
	}
}

func TestWarningSideChannel(t *testing.T) {
	in := New()

	if w := in.Interpret(snapshot(0.1, 1.8, 3, 0)).Warning; w == "" {
		t.Fatalf("expected high-tension warning")
	}

	m := snapshot(0.1, 0.2, 3, 0)
	m.Singularities = []int{3, 14, 25}
	if w := in.Interpret(m).Warning; w == "" {
		t.Fatalf("expected structural-instability warning for >2 singularities")
	}

	if w := in.Interpret(snapshot(0.1, 0.2, 3, 0)).Warning; w != "" {
		t.Fatalf("unexpected warning %q", w)
	}
}

func TestAttractorPull(t *testing.T) {
	in := New()
	m := snapshot(0.1, 0.2, 3, 0)
	m.Attractors = []models.Attractor{
		{Price: 100.5, Strength: 0.8},
		{Price: 140, Strength: 1.0},
	}
	got := in.Interpret(m)
	if got.NearestAttractor == nil {
		t.Fatalf("expected nearest attractor")
	}
	if got.NearestAttractor.Price != 100.5 {
		t.Fatalf("nearest = %v, want 100.5", got.NearestAttractor.Price)
	}
	// Within 1%: description reads as converging.
	if got.NearestAttractor.Description == "" {
		t.Fatalf("empty attractor description")
	}
	wantPull := 0.8 * (1.0 / (1.0 + 0.5))
	if math.Abs(got.PullStrength-wantPull) > 1e-9 {
		t.Fatalf("pull = %v, want %v", got.PullStrength, wantPull)
	}
}

func TestInterpreterNeverFails(t *testing.T) {
	in := New()
	empty := &models.ManifoldMetrics{}
	got := in.Interpret(empty)
	if got == nil {
		t.Fatalf("nil interpretation")
	}
	if got.Phase != models.PhaseStableEquilibrium && got.Phase != models.PhaseAttractorConvergence {
		t.Fatalf("phase for empty metrics = %s", got.Phase)
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Fatalf("confidence = %v", got.Confidence)
	}
	if got.Narrative == "" {
		t.Fatalf("empty narrative")
	}
}

func TestEndToEndLinearTrendNeverSingular(t *testing.T) {
	engine, err := manifold.NewEngine(manifold.DefaultSensitivity)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	prices := make([]float64, 100)
	volume := make([]float64, 100)
	for i := range prices {
		prices[i] = 100 + float64(i)*100/99
		volume[i] = 500
	}
	m, err := engine.Analyze(prices, nil, domrepo.ScaleDaily, volume)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	got := New().Interpret(m)
	if got.Phase == models.PhaseSingularityForming {
		t.Fatalf("linear trend diagnosed as singularity_forming")
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Fatalf("confidence = %v", got.Confidence)
	}
}
