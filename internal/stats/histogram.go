package stats

import (
	"math"

	"github.com/nvandessel/countconf/internal/constants"
)

// Bin is one equal-width histogram bucket covering [Lo, Hi).
// The last bin also includes its upper edge.
type Bin struct {
	Lo      float64 `json:"lo"`
	Hi      float64 `json:"hi"`
	Count   int     `json:"count"`
	Density float64 `json:"density"`
}

// SturgesBins picks a bin count for n samples using Sturges' rule.
func SturgesBins(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// DensityHistogram buckets xs into equal-width bins over [min, max] and
// normalizes counts so the bar areas sum to 1. When bins <= 0 the count is
// chosen by SturgesBins; counts above constants.MaxHistogramBins are clamped. A sample with a single distinct value yields one
// unit-width bin centred on it. Returns nil for empty input.
func DensityHistogram(xs []float64, bins int) []Bin {
	if len(xs) == 0 {
		return nil
	}

	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}

	n := float64(len(xs))
	if lo == hi {
		return []Bin{{Lo: lo - 0.5, Hi: hi + 0.5, Count: len(xs), Density: 1}}
	}

	if bins <= 0 {
		bins = SturgesBins(len(xs))
	}
	bins = min(bins, constants.MaxHistogramBins)
	width := (hi - lo) / float64(bins)

	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi

	for _, x := range xs {
		i := int((x - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Density = float64(out[i].Count) / (n * width)
	}
	return out
}
