package stats

import "math"

// Mean computes the arithmetic mean. Undefined for empty input.
func Mean(xs []float64) Value {
	if len(xs) == 0 {
		return None()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return Some(sum / float64(len(xs)))
}

// SampleStdDev computes the Bessel-corrected standard deviation.
// Undefined when fewer than two values are available.
func SampleStdDev(xs []float64) Value {
	n := len(xs)
	if n < 2 {
		return None()
	}
	m := Mean(xs).V
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return Some(math.Sqrt(sumSq / float64(n-1)))
}

// CountAtLeast returns how many values are >= threshold.
func CountAtLeast(xs []float64, threshold float64) int {
	count := 0
	for _, x := range xs {
		if x >= threshold {
			count++
		}
	}
	return count
}

// Wilson returns the Wilson score interval for successes out of n at the
// given z quantile, as proportions in [0, 1]. Both bounds are undefined
// when n is zero.
//
//	(p + z²/2n ± z√(p(1-p)/n + z²/4n²)) / (1 + z²/n)
func Wilson(successes, n int, z float64) (lower, upper Value) {
	if n <= 0 || successes < 0 || successes > n {
		return None(), None()
	}

	p := float64(successes) / float64(n)
	nf := float64(n)
	z2 := z * z
	base := p + z2/(2*nf)
	plusminus := z * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf))
	normalize := 1 + z2/nf

	lo := math.Max(0, (base-plusminus)/normalize)
	hi := math.Min(1, (base+plusminus)/normalize)
	return Some(lo), Some(hi)
}

// Interval is a two-sided interval whose bounds may be undefined.
type Interval struct {
	Lower Value `json:"lower"`
	Upper Value `json:"upper"`
}

// Scale multiplies both defined bounds by k.
func (iv Interval) Scale(k float64) Interval {
	out := iv
	if out.Lower.OK {
		out.Lower.V *= k
	}
	if out.Upper.OK {
		out.Upper.V *= k
	}
	return out
}
