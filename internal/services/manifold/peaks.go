package manifold

import "sort"

// peakOptions constrains which local maxima survive findPeaks.
// Zero-valued constraints are inactive.
type peakOptions struct {
	height      float64 // minimum sample value at the peak
	hasHeight   bool
	prominence  float64 // minimum prominence over surrounding terrain
	hasProm     bool
	minDistance int // minimum index separation between kept peaks
}

// findPeaks locates local maxima in xs and filters them by height,
// minimum distance (taller peaks win), then prominence. Plateau peaks
// resolve to the plateau midpoint. Returned indices are ascending.
func findPeaks(xs []float64, opts peakOptions) []int {
	peaks := localMaxima(xs)

	if opts.hasHeight {
		kept := peaks[:0]
		for _, p := range peaks {
			if xs[p] >= opts.height {
				kept = append(kept, p)
			}
		}
		peaks = kept
	}

	if opts.minDistance > 1 {
		peaks = enforceDistance(xs, peaks, opts.minDistance)
	}

	if opts.hasProm {
		kept := peaks[:0]
		for _, p := range peaks {
			if prominence(xs, p) >= opts.prominence {
				kept = append(kept, p)
			}
		}
		peaks = kept
	}

	return peaks
}

func localMaxima(xs []float64) []int {
	var peaks []int
	n := len(xs)
	i := 1
	for i < n-1 {
		if xs[i] > xs[i-1] {
			ahead := i
			for ahead < n-1 && xs[ahead+1] == xs[i] {
				ahead++
			}
			if ahead < n-1 && xs[ahead+1] < xs[i] {
				peaks = append(peaks, (i+ahead)/2)
				i = ahead
			}
		}
		i++
	}
	return peaks
}

// enforceDistance drops the smaller of any two peaks closer than dist,
// processing peaks tallest-first.
func enforceDistance(xs []float64, peaks []int, dist int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return xs[peaks[order[a]]] > xs[peaks[order[b]]]
	})

	removed := make([]bool, len(peaks))
	for _, idx := range order {
		if removed[idx] {
			continue
		}
		for j := idx - 1; j >= 0 && peaks[idx]-peaks[j] < dist; j-- {
			removed[j] = true
		}
		for j := idx + 1; j < len(peaks) && peaks[j]-peaks[idx] < dist; j++ {
			removed[j] = true
		}
	}

	var kept []int
	for i, p := range peaks {
		if !removed[i] {
			kept = append(kept, p)
		}
	}
	return kept
}

// prominence measures how far a peak rises above the lowest contour
// line that separates it from any higher terrain.
func prominence(xs []float64, peak int) float64 {
	h := xs[peak]

	leftMin := h
	for i := peak - 1; i >= 0; i-- {
		if xs[i] > h {
			break
		}
		if xs[i] < leftMin {
			leftMin = xs[i]
		}
	}

	rightMin := h
	for i := peak + 1; i < len(xs); i++ {
		if xs[i] > h {
			break
		}
		if xs[i] < rightMin {
			rightMin = xs[i]
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return h - base
}
