package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
	"ManifoldPulse/internal/services/interpreter"
	"ManifoldPulse/internal/services/manifold"
)

// ManifoldUseCase runs manifold analysis over candle history and exposes
// the derived views (attractors, singularities, pulse) the API serves.
type ManifoldUseCase struct {
	store   domrepo.CandleStore
	engine  *manifold.Engine
	multi   *manifold.MultiScaleAnalyzer
	interp  *interpreter.Interpreter
	metrics domrepo.Metrics
}

func NewManifoldUseCase(
	store domrepo.CandleStore,
	engine *manifold.Engine,
	multi *manifold.MultiScaleAnalyzer,
	interp *interpreter.Interpreter,
	metrics domrepo.Metrics,
) *ManifoldUseCase {
	return &ManifoldUseCase{store: store, engine: engine, multi: multi, interp: interp, metrics: metrics}
}

type AnalyzeParams struct {
	Symbol    string
	Interval  domrepo.Interval
	Limit     int
	Timescale domrepo.Timescale
	Interpret bool
}

type AnalyzeResult struct {
	Metrics        *models.ManifoldMetrics
	Interpretation *models.Interpretation // nil unless requested
}

func (uc *ManifoldUseCase) loadSeries(ctx context.Context, symbol string, n int, iv domrepo.Interval) (prices, volumes, timestamps []float64, err error) {
	if symbol == "" {
		return nil, nil, nil, fmt.Errorf("symbol required")
	}
	if n <= 0 {
		n = 100
	}
	candles, err := uc.store.GetLatestNCandles(ctx, symbol, n, iv)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, nil, nil, &manifold.InsufficientDataError{Op: "analyze", Need: 2, Got: 0}
	}
	prices, volumes, timestamps = models.Series(candles)
	return prices, volumes, timestamps, nil
}

// Analyze computes the full metrics snapshot for one symbol, optionally
// followed by a qualitative interpretation.
func (uc *ManifoldUseCase) Analyze(ctx context.Context, p AnalyzeParams) (*AnalyzeResult, error) {
	start := time.Now()
	prices, volumes, timestamps, err := uc.loadSeries(ctx, p.Symbol, p.Limit, p.Interval)
	if err != nil {
		uc.metrics.RecordError("analyze_load")
		return nil, err
	}
	scale := p.Timescale
	if scale == "" {
		scale = domrepo.ScaleDaily
	}

	m, err := uc.engine.Analyze(prices, timestamps, scale, volumes)
	if err != nil {
		uc.metrics.RecordError("analyze")
		return nil, err
	}

	res := &AnalyzeResult{Metrics: m}
	if p.Interpret {
		res.Interpretation = uc.interp.Interpret(m)
		uc.metrics.RecordPhase(p.Symbol, string(res.Interpretation.Phase))
	}
	uc.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	return res, nil
}

// Interpret runs analysis and always returns the qualitative reading.
func (uc *ManifoldUseCase) Interpret(ctx context.Context, p AnalyzeParams) (*models.Interpretation, *models.ManifoldMetrics, error) {
	p.Interpret = true
	res, err := uc.Analyze(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	return res.Interpretation, res.Metrics, nil
}

type MultiscaleParams struct {
	Symbol   string
	Interval domrepo.Interval
	Limit    int
	Scales   []domrepo.Timescale // empty means all
}

type MultiscaleResult struct {
	Scales map[domrepo.Timescale]*models.ManifoldMetrics
	Errors map[domrepo.Timescale]error // nil when every scale succeeded
}

// Multiscale runs the engine across timescales concurrently. Scales
// with too little data after decimation report per-scale errors
// without failing the rest.
func (uc *ManifoldUseCase) Multiscale(ctx context.Context, p MultiscaleParams) (*MultiscaleResult, error) {
	start := time.Now()
	if p.Limit <= 0 {
		p.Limit = 200
	}
	prices, _, timestamps, err := uc.loadSeries(ctx, p.Symbol, p.Limit, p.Interval)
	if err != nil {
		uc.metrics.RecordError("multiscale_load")
		return nil, err
	}
	scales := p.Scales
	if len(scales) == 0 {
		scales = domrepo.AllTimescales()
	}
	results, errs := uc.multi.AnalyzeMultiscale(prices, timestamps, scales)
	uc.metrics.RecordLatency("multiscale", time.Since(start).Seconds())
	return &MultiscaleResult{Scales: results, Errors: errs}, nil
}

type AttractorsParams struct {
	Symbol   string
	Interval domrepo.Interval
	Limit    int
	Top      int
}

type AttractorLevel struct {
	Price       float64 `json:"price"`
	Strength    float64 `json:"strength"`
	DistancePct float64 `json:"distance_pct"`
}

type AttractorsResult struct {
	Symbol       string           `json:"symbol"`
	CurrentPrice float64          `json:"current_price"`
	Attractors   []AttractorLevel `json:"attractors"`
}

// Attractors returns the current attractor basins as support/resistance
// levels annotated with distance from the last price.
func (uc *ManifoldUseCase) Attractors(ctx context.Context, p AttractorsParams) (*AttractorsResult, error) {
	prices, volumes, _, err := uc.loadSeries(ctx, p.Symbol, p.Limit, p.Interval)
	if err != nil {
		uc.metrics.RecordError("attractors_load")
		return nil, err
	}
	top := p.Top
	if top <= 0 {
		top = manifold.DefaultNumAttractors
	}
	attractors := uc.engine.FindAttractors(prices, volumes, top)
	cur := prices[len(prices)-1]

	out := &AttractorsResult{Symbol: p.Symbol, CurrentPrice: cur}
	for _, a := range attractors {
		out.Attractors = append(out.Attractors, AttractorLevel{
			Price:       a.Price,
			Strength:    a.Strength,
			DistancePct: (a.Price - cur) / cur * 100,
		})
	}
	return out, nil
}

type SingularitiesParams struct {
	Symbol      string
	Interval    domrepo.Interval
	Limit       int
	Sensitivity float64
}

type SingularityEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Curvature float64   `json:"curvature"`
	Tension   float64   `json:"tension"`
	Entropy   float64   `json:"entropy"`
}

type SingularitiesResult struct {
	Symbol        string             `json:"symbol"`
	Singularities []SingularityEvent `json:"singularities"`
	Count         int                `json:"count"`
}

// Singularities detects extreme tension points at an optional caller
// supplied sensitivity and returns each with its local context.
func (uc *ManifoldUseCase) Singularities(ctx context.Context, p SingularitiesParams) (*SingularitiesResult, error) {
	prices, volumes, timestamps, err := uc.loadSeries(ctx, p.Symbol, p.Limit, p.Interval)
	if err != nil {
		uc.metrics.RecordError("singularities_load")
		return nil, err
	}

	engine := uc.engine
	if p.Sensitivity > 0 && p.Sensitivity != engine.Sensitivity() {
		engine, err = manifold.NewEngine(p.Sensitivity)
		if err != nil {
			return nil, err
		}
	}

	m, err := engine.Analyze(prices, timestamps, domrepo.ScaleDaily, volumes)
	if err != nil {
		uc.metrics.RecordError("singularities")
		return nil, err
	}

	out := &SingularitiesResult{Symbol: p.Symbol}
	for _, idx := range m.Singularities {
		if idx < 0 || idx >= len(m.Prices) {
			continue
		}
		out.Singularities = append(out.Singularities, SingularityEvent{
			Timestamp: time.Unix(int64(m.Timestamps[idx]), 0).UTC(),
			Price:     m.Prices[idx],
			Curvature: m.Curvature[idx],
			Tension:   m.Tension[idx],
			Entropy:   m.LocalEntropy[idx],
		})
	}
	out.Count = len(out.Singularities)
	return out, nil
}

type PulseParams struct {
	Symbol   string
	Interval domrepo.Interval
	Limit    int
}

type PulseAttractor struct {
	Price       float64 `json:"price"`
	Distance    float64 `json:"distance"`
	DistancePct float64 `json:"distance_pct"`
}

type Pulse struct {
	CurrentPrice        float64         `json:"current_price"`
	Entropy             float64         `json:"entropy"`
	EntropyLevel        string          `json:"entropy_level"`
	Tension             float64         `json:"tension"`
	TensionLevel        string          `json:"tension_level"`
	NearestAttractor    *PulseAttractor `json:"nearest_attractor,omitempty"`
	RecentSingularities int             `json:"recent_singularities"`
	ManifoldState       string          `json:"manifold_state"`
}

type PulseResult struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Pulse     Pulse     `json:"pulse"`
}

// Pulse is the quick health check: entropy and tension levels, the
// nearest attractor, and how many singularities landed in the last
// fifth of the series.
func (uc *ManifoldUseCase) Pulse(ctx context.Context, p PulseParams) (*PulseResult, error) {
	prices, volumes, timestamps, err := uc.loadSeries(ctx, p.Symbol, p.Limit, p.Interval)
	if err != nil {
		uc.metrics.RecordError("pulse_load")
		return nil, err
	}
	m, err := uc.engine.Analyze(prices, timestamps, domrepo.ScaleDaily, volumes)
	if err != nil {
		uc.metrics.RecordError("pulse")
		return nil, err
	}

	cur := m.LastPrice()
	entropy := lastVal(m.LocalEntropy)
	tension := lastVal(m.Tension)

	pulse := Pulse{
		CurrentPrice:        cur,
		Entropy:             entropy,
		EntropyLevel:        levelOf(entropy, 5, 3),
		Tension:             tension,
		TensionLevel:        levelOf(math.Abs(tension), 1.5, 0.5),
		RecentSingularities: countRecentSingularities(m.Singularities, len(m.Prices)),
		ManifoldState:       interpretState(entropy, tension),
	}
	if a, ok := m.NearestAttractor(cur); ok && cur != 0 {
		d := math.Abs(a.Price - cur)
		pulse.NearestAttractor = &PulseAttractor{
			Price:       a.Price,
			Distance:    d,
			DistancePct: d / cur * 100,
		}
	}

	return &PulseResult{Symbol: p.Symbol, Timestamp: time.Now().UTC(), Pulse: pulse}, nil
}

// countRecentSingularities counts singularities in the last 20% of samples.
func countRecentSingularities(singularities []int, n int) int {
	threshold := int(float64(n) * 0.8)
	count := 0
	for _, idx := range singularities {
		if idx >= threshold {
			count++
		}
	}
	return count
}

func interpretState(entropy, tension float64) string {
	switch {
	case math.Abs(tension) > 1.5 && entropy > 5:
		return "high_tension"
	case math.Abs(tension) > 1.5:
		return "compressed"
	case entropy > 5:
		return "chaotic"
	case math.Abs(tension) < 0.5 && entropy < 3:
		return "stable"
	default:
		return "transitional"
	}
}

func levelOf(v, high, medium float64) string {
	switch {
	case v > high:
		return "high"
	case v > medium:
		return "medium"
	default:
		return "low"
	}
}

func lastVal(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}
