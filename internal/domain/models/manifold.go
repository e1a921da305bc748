package models

// Attractor is a price level with historically dense visitation.
// Strength is normalized to [0,1] relative to the densest level.
type Attractor struct {
	Price    float64
	Strength float64
}

// ManifoldMetrics is the immutable result of one engine analysis pass.
// All per-sample arrays have the same length as the input price series.
type ManifoldMetrics struct {
	Timestamps    []float64
	Prices        []float64
	Curvature     []float64
	Entropy       float64 // global Shannon entropy of returns
	LocalEntropy  []float64
	Singularities []int // ascending indices
	Attractors    []Attractor
	RicciFlow     []float64
	Tension       []float64
	Timescale     string
}

// LastPrice returns the most recent price, or 0 for an empty series.
func (m *ManifoldMetrics) LastPrice() float64 {
	if len(m.Prices) == 0 {
		return 0
	}
	return m.Prices[len(m.Prices)-1]
}

// NearestAttractor returns the attractor closest to price by absolute
// distance and false when the attractor list is empty.
func (m *ManifoldMetrics) NearestAttractor(price float64) (Attractor, bool) {
	if len(m.Attractors) == 0 {
		return Attractor{}, false
	}
	best := m.Attractors[0]
	for _, a := range m.Attractors[1:] {
		if abs(a.Price-price) < abs(best.Price-price) {
			best = a
		}
	}
	return best, true
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
