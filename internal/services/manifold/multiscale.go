package manifold

import (
	"sync"

	"ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
)

// MultiScaleAnalyzer re-runs the engine at several temporal resolutions
// so coarse folds can be compared against fine vibrations.
type MultiScaleAnalyzer struct {
	engine *Engine
}

func NewMultiScaleAnalyzer(engine *Engine) *MultiScaleAnalyzer {
	return &MultiScaleAnalyzer{engine: engine}
}

// AnalyzeMultiscale analyzes the series once per requested scale
// (all four when scales is empty). Resampling is fixed-stride
// decimation, not OHLC aggregation; see DecimationFactor. Scales are
// independent pure computations, so they fan out in parallel, and a
// failed or degenerate scale lands in the error map without aborting
// its siblings.
func (a *MultiScaleAnalyzer) AnalyzeMultiscale(prices, timestamps []float64, scales []domrepo.Timescale) (map[domrepo.Timescale]*models.ManifoldMetrics, map[domrepo.Timescale]error) {
	if len(scales) == 0 {
		scales = domrepo.AllTimescales()
	}

	results := make(map[domrepo.Timescale]*models.ManifoldMetrics, len(scales))
	errs := make(map[domrepo.Timescale]error)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, scale := range scales {
		wg.Add(1)
		go func(scale domrepo.Timescale) {
			defer wg.Done()
			rp, rt := resample(prices, timestamps, domrepo.DecimationFactor(scale))
			m, err := a.engine.Analyze(rp, rt, scale, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[scale] = err
				return
			}
			results[scale] = m
		}(scale)
	}
	wg.Wait()

	if len(errs) == 0 {
		errs = nil
	}
	return results, errs
}

// resample takes every factor-th sample. Timestamps may be nil.
func resample(prices, timestamps []float64, factor int) ([]float64, []float64) {
	if factor <= 1 {
		return prices, timestamps
	}
	rp := make([]float64, 0, len(prices)/factor+1)
	var rt []float64
	if timestamps != nil {
		rt = make([]float64, 0, cap(rp))
	}
	for i := 0; i < len(prices); i += factor {
		rp = append(rp, prices[i])
		if timestamps != nil {
			rt = append(rt, timestamps[i])
		}
	}
	return rp, rt
}
