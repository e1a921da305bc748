package manifold

import "math"

// gaussianSmooth applies a 1-D Gaussian filter with the given sigma.
// The kernel is truncated at 4 sigma and the signal is extended by
// reflection about the edges, so peak shapes survive smoothing without
// boundary artifacts.
func gaussianSmooth(xs []float64, sigma float64) []float64 {
	n := len(xs)
	if n == 0 || sigma <= 0 {
		out := make([]float64, n)
		copy(out, xs)
		return out
	}

	radius := int(4*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		acc := 0.0
		for k := -radius; k <= radius; k++ {
			acc += kernel[k+radius] * xs[reflectIndex(i+k, n)]
		}
		out[i] = acc
	}
	return out
}

// reflectIndex maps an out-of-range index back into [0,n) by mirroring
// about the array edges (..., 2, 1, 0 | 0, 1, 2, ... n-1 | n-1, n-2, ...).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - 1 - i
		}
	}
	return i
}
