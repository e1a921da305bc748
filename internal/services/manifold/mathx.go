package manifold

import "math"

const eps = 1e-8

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// std is the population standard deviation.
func std(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// gradient computes the central-difference derivative with one-sided
// differences at the boundaries. A single-element input yields [0].
func gradient(xs []float64) []float64 {
	n := len(xs)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = xs[1] - xs[0]
	out[n-1] = xs[n-1] - xs[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (xs[i+1] - xs[i-1]) / 2
	}
	return out
}

func cumsum(xs []float64) []float64 {
	out := make([]float64, len(xs))
	run := 0.0
	for i, x := range xs {
		run += x
		out[i] = run
	}
	return out
}

// histogram bins values into `bins` equal-width buckets spanning
// [min, max]. A degenerate range is widened by 0.5 on each side so a
// constant series still produces a usable distribution. The right edge
// is inclusive for the last bucket.
func histogram(values []float64, bins int) (counts []float64, edges []float64) {
	counts = make([]float64, bins)
	edges = make([]float64, bins+1)
	if len(values) == 0 || bins <= 0 {
		return counts, edges
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}
	return counts, edges
}

// densityHistogram normalizes bucket counts so the histogram integrates
// to one, matching a probability density estimate.
func densityHistogram(values []float64, bins int) []float64 {
	counts, edges := histogram(values, bins)
	if len(values) == 0 || bins <= 0 {
		return counts
	}
	width := edges[1] - edges[0]
	total := float64(len(values))
	out := make([]float64, bins)
	for i, c := range counts {
		out[i] = c / (total * width)
	}
	return out
}

// shannonEntropy computes -sum(h * log2(h + eps)) over the non-empty
// buckets of a density histogram.
func shannonEntropy(density []float64) float64 {
	e := 0.0
	for _, h := range density {
		if h > 0 {
			e -= h * math.Log2(h+eps)
		}
	}
	return e
}

// zscore normalizes in place relative to the slice's own mean and
// standard deviation, with an epsilon-guarded denominator.
func zscore(xs []float64) []float64 {
	m := mean(xs)
	s := std(xs) + eps
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = (x - m) / s
	}
	return out
}
