package manifold

import (
	"math"

	"ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
)

// Engine defaults. The numeric thresholds are calibrated constants of
// the methodology, kept named and tunable rather than re-derived.
const (
	DefaultSensitivity    = 1.0
	DefaultSmoothWindow   = 5
	DefaultEntropyBins    = 50
	DefaultEntropyWindow  = 20
	DefaultSingThreshold  = 2.0
	DefaultNumAttractors  = 5
	DefaultFlowStep       = 0.1
	minSingularityGap     = 10
	minAttractorGap       = 3
	attractorBins         = 50
	tensionLongSigma      = 20.0
	curvatureSmoothFactor = 3.0
	flowSmoothSigma       = 3.0
)

// Engine computes geometric metrics over a price series. All methods
// are deterministic, side-effect-free functions of their arguments and
// the engine's read-only sensitivity, so one Engine is safe for
// concurrent use.
type Engine struct {
	sensitivity float64
}

// NewEngine creates an engine. Sensitivity multiplies the singularity
// detection threshold only; it must be positive.
func NewEngine(sensitivity float64) (*Engine, error) {
	if sensitivity <= 0 || math.IsNaN(sensitivity) || math.IsInf(sensitivity, 0) {
		return nil, &InvalidConfigurationError{Field: "sensitivity", Reason: "must be a positive finite number"}
	}
	return &Engine{sensitivity: sensitivity}, nil
}

// Sensitivity returns the configured detection multiplier.
func (e *Engine) Sensitivity() float64 { return e.sensitivity }

// Analyze runs the complete metrics pass and assembles an immutable
// snapshot. Timestamps default to a sequential index; volume is
// optional. Parallel arrays must match the price length.
func (e *Engine) Analyze(prices, timestamps []float64, scale domrepo.Timescale, volume []float64) (*models.ManifoldMetrics, error) {
	if len(prices) < 2 {
		return nil, &InsufficientDataError{Op: "analyze", Need: 2, Got: len(prices)}
	}
	if !domrepo.IsValidTimescale(scale) {
		return nil, &InvalidConfigurationError{Field: "timescale", Reason: "unsupported tag " + string(scale)}
	}
	if timestamps != nil && len(timestamps) != len(prices) {
		return nil, ErrLengthMismatch
	}
	if volume != nil && len(volume) != len(prices) {
		return nil, ErrLengthMismatch
	}
	if timestamps == nil {
		timestamps = make([]float64, len(prices))
		for i := range timestamps {
			timestamps[i] = float64(i)
		}
	}

	curvature, err := e.CalculateCurvature(prices, DefaultSmoothWindow)
	if err != nil {
		return nil, err
	}
	entropy, err := e.CalculateGlobalEntropy(prices, DefaultEntropyBins)
	if err != nil {
		return nil, err
	}
	localEntropy := e.CalculateLocalEntropy(prices, DefaultEntropyWindow)
	tension, err := e.CalculateTension(prices, volume)
	if err != nil {
		return nil, err
	}

	singularities := e.DetectSingularities(curvature, tension, DefaultSingThreshold)
	attractors := e.FindAttractors(prices, volume, DefaultNumAttractors)
	flow := e.CalculateRicciFlow(curvature, tension, DefaultFlowStep)

	return &models.ManifoldMetrics{
		Timestamps:    timestamps,
		Prices:        prices,
		Curvature:     curvature,
		Entropy:       entropy,
		LocalEntropy:  localEntropy,
		Singularities: singularities,
		Attractors:    attractors,
		RicciFlow:     flow,
		Tension:       tension,
		Timescale:     string(scale),
	}, nil
}

// CalculateCurvature measures how sharply the series is bending: the
// second derivative of the mean/variance-normalized price, Gaussian
// smoothed (sigma = smoothWindow/3) to suppress noise while keeping
// peak shape. Output length equals input length.
func (e *Engine) CalculateCurvature(prices []float64, smoothWindow int) ([]float64, error) {
	if len(prices) < 2 {
		return nil, &InsufficientDataError{Op: "curvature", Need: 2, Got: len(prices)}
	}

	m := mean(prices)
	s := std(prices) + eps
	normalized := make([]float64, len(prices))
	for i, p := range prices {
		normalized[i] = (p - m) / s
	}

	velocity := gradient(normalized)
	curvature := gradient(velocity)

	if smoothWindow > 1 {
		curvature = gaussianSmooth(curvature, float64(smoothWindow)/curvatureSmoothFactor)
	}
	return curvature, nil
}

// CalculateGlobalEntropy returns the Shannon entropy of the simple
// return distribution over the whole series. High entropy reads as a
// chaotic market, low entropy as a calm one.
func (e *Engine) CalculateGlobalEntropy(prices []float64, bins int) (float64, error) {
	if len(prices) < 2 {
		return 0, &InsufficientDataError{Op: "global entropy", Need: 2, Got: len(prices)}
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = (prices[i] - prices[i-1]) / (prices[i-1] + eps)
	}
	return shannonEntropy(densityHistogram(returns, bins)), nil
}

// CalculateLocalEntropy computes rolling entropy over a trailing
// window, revealing pockets of chaos inside the series. Indices below
// the window are backfilled with the first computed value; a series
// shorter than the window degrades to all zeros rather than failing.
func (e *Engine) CalculateLocalEntropy(prices []float64, window int) []float64 {
	n := len(prices)
	out := make([]float64, n)
	if window < 2 {
		return out
	}
	bins := window / 2
	if bins > 10 {
		bins = 10
	}

	for i := window; i < n; i++ {
		segment := prices[i-window : i]
		returns := make([]float64, len(segment)-1)
		for j := 1; j < len(segment); j++ {
			returns[j-1] = (segment[j] - segment[j-1]) / (segment[j-1] + eps)
		}
		out[i] = shannonEntropy(densityHistogram(returns, bins))
	}

	if window < n {
		for i := 0; i < window; i++ {
			out[i] = out[window]
		}
	}
	return out
}

// CalculateTension combines accumulated directional momentum with the
// relative distance from a long Gaussian moving average, optionally
// volume-weighted, then z-scores the result. Tension is stored
// directional pressure awaiting release.
func (e *Engine) CalculateTension(prices, volume []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, &InsufficientDataError{Op: "tension", Need: 2, Got: len(prices)}
	}
	if volume != nil && len(volume) != len(prices) {
		return nil, ErrLengthMismatch
	}

	returns := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		returns[i] = (prices[i] - prices[i-1]) / (prices[i] + eps)
	}
	momentum := cumsum(returns)

	maLong := gaussianSmooth(prices, tensionLongSigma)

	tension := make([]float64, len(prices))
	for i := range prices {
		dist := math.Abs(prices[i]-maLong[i]) / (maLong[i] + eps)
		tension[i] = math.Abs(momentum[i]) * dist
	}

	if volume != nil {
		vm := mean(volume) + eps
		for i := range tension {
			tension[i] *= volume[i] / vm
		}
	}

	return zscore(tension), nil
}

// DetectSingularities finds indices where curvature and tension jointly
// spike: both are normalized by their own standard deviation,
// multiplied, and peaks of the composite score above
// threshold*sensitivity are kept with a minimum separation of 10.
func (e *Engine) DetectSingularities(curvature, tension []float64, threshold float64) []int {
	n := len(curvature)
	if len(tension) < n {
		n = len(tension)
	}
	if n == 0 {
		return nil
	}

	curvStd := std(curvature) + eps
	tensStd := std(tension) + eps
	score := make([]float64, n)
	for i := 0; i < n; i++ {
		score[i] = (math.Abs(curvature[i]) / curvStd) * (math.Abs(tension[i]) / tensStd)
	}

	return findPeaks(score, peakOptions{
		height:      threshold * e.sensitivity,
		hasHeight:   true,
		minDistance: minSingularityGap,
	})
}

// FindAttractors locates price levels with dense historical visitation:
// peaks of a 50-bucket price histogram (volume-weighted when volume is
// supplied), normalized to [0,1] by the tallest, strongest first. The
// fallback guarantees at least one attractor at the last price.
func (e *Engine) FindAttractors(prices, volume []float64, numAttractors int) []models.Attractor {
	if len(prices) == 0 {
		return nil
	}
	if numAttractors <= 0 {
		numAttractors = DefaultNumAttractors
	}

	counts, edges := histogram(prices, attractorBins)
	width := edges[1] - edges[0]

	if volume != nil && len(volume) == len(prices) {
		weighted := make([]float64, len(counts))
		for i, p := range prices {
			idx := int((p - edges[0]) / width)
			if idx >= 0 && idx < len(weighted) {
				weighted[idx] += volume[i]
			}
		}
		counts = weighted
	}

	peaks := findPeaks(counts, peakOptions{
		prominence:  0.5 * std(counts),
		hasProm:     true,
		minDistance: minAttractorGap,
	})
	if len(peaks) == 0 {
		return []models.Attractor{{Price: prices[len(prices)-1], Strength: 1.0}}
	}

	maxHeight := counts[peaks[0]]
	for _, p := range peaks[1:] {
		if counts[p] > maxHeight {
			maxHeight = counts[p]
		}
	}

	attractors := make([]models.Attractor, 0, len(peaks))
	for _, p := range peaks {
		center := (edges[p] + edges[p+1]) / 2
		attractors = append(attractors, models.Attractor{
			Price:    center,
			Strength: counts[p] / maxHeight,
		})
	}
	sortAttractors(attractors)
	if len(attractors) > numAttractors {
		attractors = attractors[:numAttractors]
	}
	return attractors
}

// CalculateRicciFlow estimates how fast the manifold is relaxing from
// extremes: flow = -dt*curvature*(1+tension), differentiated and
// Gaussian smoothed (sigma = 3).
func (e *Engine) CalculateRicciFlow(curvature, tension []float64, dt float64) []float64 {
	n := len(curvature)
	if len(tension) < n {
		n = len(tension)
	}
	flow := make([]float64, n)
	for i := 0; i < n; i++ {
		flow[i] = -dt * curvature[i] * (1 + tension[i])
	}
	return gaussianSmooth(gradient(flow), flowSmoothSigma)
}

func sortAttractors(as []models.Attractor) {
	// insertion sort, strongest first; attractor lists are tiny
	for i := 1; i < len(as); i++ {
		for j := i; j > 0 && as[j].Strength > as[j-1].Strength; j-- {
			as[j], as[j-1] = as[j-1], as[j]
		}
	}
}
